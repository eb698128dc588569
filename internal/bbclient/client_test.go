package bbclient

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khitir/bulletin-board/internal/config"
	"github.com/khitir/bulletin-board/internal/server"
)

func startSequentialServer(t *testing.T, addr string) {
	t.Helper()
	srv := server.New(config.Config{
		Host: "127.0.0.1", Port: mustPort(t, addr),
		Coordinator: true, CoordinatorAddr: addr,
		Servers: []string{addr}, Consistency: config.Sequential, DisableLatencyJitter: true,
	})
	go srv.Start()
	t.Cleanup(srv.Stop)
	waitListening(t, addr)
}

func TestClientPostAndReadArticles(t *testing.T) {
	const addr = "127.0.0.1:19401"
	startSequentialServer(t, addr)

	c := New(addr, config.Sequential)
	require.NoError(t, c.Connect())

	id, err := c.PostArticle("hello", "world")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	list, err := c.ReadArticles()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Title)
	assert.Nil(t, list[0].ParentID)

	content, err := c.ReadArticleContent(id)
	require.NoError(t, err)
	assert.Equal(t, "world", content.Article.Content)
}

func TestClientReplyLinksToParent(t *testing.T) {
	const addr = "127.0.0.1:19402"
	startSequentialServer(t, addr)

	c := New(addr, config.Sequential)
	require.NoError(t, c.Connect())

	rootID, err := c.PostArticle("root", "body")
	require.NoError(t, err)

	replyID, err := c.ReplyArticle(rootID, "reply", "body2")
	require.NoError(t, err)
	assert.NotEqual(t, rootID, replyID)

	list, err := c.ReadArticles()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[1].ParentID)
	assert.Equal(t, rootID, *list[1].ParentID)
}

func TestClientSwitchServerRequiresReconnect(t *testing.T) {
	const addrA = "127.0.0.1:19403"
	const addrB = "127.0.0.1:19404"
	startSequentialServer(t, addrA)
	startSequentialServer(t, addrB)

	c := New(addrA, config.ReadYourWrites)
	require.NoError(t, c.Connect())

	c.SwitchServer(addrB)
	assert.Equal(t, addrB, c.ServerAddr)
	require.NoError(t, c.Connect())
}

func mustPort(t *testing.T, addr string) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}

func waitListening(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("server at %s never started listening: %v", addr, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
