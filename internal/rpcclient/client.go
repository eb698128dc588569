// Package rpcclient sends a single request to a peer server and waits for
// its response, over the same newline-delimited JSON protocol the front
// end speaks.
//
// Every outgoing call is a fresh TCP connection: the protocol has no
// notion of a persistent peer session, only request/response pairs.
package rpcclient

import (
	"fmt"
	"net"
	"time"

	"github.com/khitir/bulletin-board/internal/netutil"
	"github.com/khitir/bulletin-board/internal/protocol"
)

// DefaultTimeout bounds both the dial and the round trip. Every outgoing
// RPC must carry a bounded timeout so a dead peer can never hang a
// caller indefinitely.
const DefaultTimeout = 10 * time.Second

// Client issues request/response RPCs against peer addresses.
type Client struct {
	Timeout time.Duration
}

// New returns a Client using DefaultTimeout.
func New() *Client {
	return &Client{Timeout: DefaultTimeout}
}

// Call dials addr, sends msg, and returns the decoded response.
func (c *Client) Call(addr string, msg protocol.Message) (protocol.Message, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: dial %s: %w", addr, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))

	payload, err := protocol.Encode(msg)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("rpcclient: write to %s: %w", addr, err)
	}

	line, err := netutil.NewLineReader(conn).ReadLine()
	if err != nil {
		return nil, fmt.Errorf("rpcclient: read from %s: %w", addr, err)
	}
	resp, err := protocol.Decode(line)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: decode response from %s: %w", addr, err)
	}
	return resp, nil
}
