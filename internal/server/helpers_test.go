package server

import (
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/khitir/bulletin-board/internal/protocol"
)

// mustPort extracts the numeric port from a "host:port" literal, so test
// cluster configs can be written as plain address strings.
func mustPort(t *testing.T, addr string) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("mustPort: %s: %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("mustPort: %s: %v", addr, err)
	}
	return port
}

// waitListening blocks until every addr accepts a TCP connection or the
// deadline passes, so tests never race the listener goroutine.
func waitListening(t *testing.T, addrs ...string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for _, addr := range addrs {
		for {
			conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
			if err == nil {
				conn.Close()
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("server at %s never started listening: %v", addr, err)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// rawMessage lets tests send an envelope with an arbitrary, possibly
// invalid, "type" field without needing a registered concrete struct.
type rawMessage struct {
	typ string
}

func (r rawMessage) MsgType() protocol.MsgType { return protocol.MsgType(r.typ) }

func (r rawMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"type": r.typ})
}
