package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khitir/bulletin-board/internal/config"
	"github.com/khitir/bulletin-board/internal/protocol"
	"github.com/khitir/bulletin-board/internal/rpcclient"
)

func sequentialCluster(t *testing.T, coordAddr string, peerAddrs ...string) []*Server {
	t.Helper()
	all := append([]string{coordAddr}, peerAddrs...)

	coord := New(config.Config{
		Host: "127.0.0.1", Port: mustPort(t, coordAddr),
		Coordinator: true, CoordinatorAddr: coordAddr,
		Servers: all, Consistency: config.Sequential, DisableLatencyJitter: true,
	})
	go coord.Start()

	servers := []*Server{coord}
	for _, addr := range peerAddrs {
		peer := New(config.Config{
			Host: "127.0.0.1", Port: mustPort(t, addr),
			Coordinator: false, CoordinatorAddr: coordAddr,
			Servers: all, Consistency: config.Sequential, DisableLatencyJitter: true,
		})
		go peer.Start()
		servers = append(servers, peer)
	}

	t.Cleanup(func() {
		for _, s := range servers {
			s.Stop()
		}
	})
	waitListening(t, all...)
	return servers
}

// TestSequentialPropagation covers a client posting through a
// non-coordinator peer; the coordinator appends and broadcasts, and
// every replica ends up holding the article.
func TestSequentialPropagation(t *testing.T) {
	const coordAddr = "127.0.0.1:19101"
	const p1Addr = "127.0.0.1:19102"
	const p2Addr = "127.0.0.1:19103"
	sequentialCluster(t, coordAddr, p1Addr, p2Addr)

	rpc := rpcclient.New()
	resp, err := rpc.Call(p1Addr, &protocol.PostArticle{Type: protocol.TypePostArticle, Title: "hello", Content: "world"})
	require.NoError(t, err)

	success, ok := resp.(*protocol.PostSuccess)
	require.True(t, ok, "expected post_success, got %T: %+v", resp, resp)
	assert.Equal(t, int64(1), success.ArticleID)

	require.Eventually(t, func() bool {
		cResp, err := rpc.Call(coordAddr, &protocol.ReadArticleContent{Type: protocol.TypeReadArticleContent, ArticleID: 1})
		if err != nil {
			return false
		}
		_, ok := cResp.(*protocol.ArticleContent)
		return ok
	}, time.Second, 10*time.Millisecond, "coordinator must hold article 1")

	require.Eventually(t, func() bool {
		pResp, err := rpc.Call(p2Addr, &protocol.ReadArticleContent{Type: protocol.TypeReadArticleContent, ArticleID: 1})
		if err != nil {
			return false
		}
		_, ok := pResp.(*protocol.ArticleContent)
		return ok
	}, time.Second, 10*time.Millisecond, "peer P2 must receive article 1 via broadcast")
}

// TestSequentialThread covers a root article and a reply that references
// it, checking that the parent/child relationship round-trips through
// the listing endpoint.
func TestSequentialThread(t *testing.T) {
	const coordAddr = "127.0.0.1:19111"
	sequentialCluster(t, coordAddr)

	rpc := rpcclient.New()
	resp, err := rpc.Call(coordAddr, &protocol.PostArticle{Type: protocol.TypePostArticle, Title: "T", Content: "root"})
	require.NoError(t, err)
	root := resp.(*protocol.PostSuccess)
	assert.Equal(t, int64(1), root.ArticleID)

	resp, err = rpc.Call(coordAddr, &protocol.ReplyArticle{Type: protocol.TypeReplyArticle, ParentID: root.ArticleID, Title: "R", Content: "reply"})
	require.NoError(t, err)
	reply := resp.(*protocol.PostSuccess)
	assert.Equal(t, int64(2), reply.ArticleID)

	resp, err = rpc.Call(coordAddr, &protocol.ReadArticles{Type: protocol.TypeReadArticles})
	require.NoError(t, err)
	list := resp.(*protocol.ArticlesList)
	require.Len(t, list.Articles, 2)
	assert.Equal(t, int64(1), list.Articles[0].ID)
	assert.Nil(t, list.Articles[0].ParentID)
	assert.Equal(t, int64(2), list.Articles[1].ID)
	require.NotNil(t, list.Articles[1].ParentID)
	assert.Equal(t, int64(1), *list.Articles[1].ParentID)
}

func TestUnknownMessageTypeReturnsError(t *testing.T) {
	const addr = "127.0.0.1:19121"
	sequentialCluster(t, addr)

	rpc := rpcclient.New()
	resp, err := rpc.Call(addr, rawMessage{typ: "not_a_real_type"})
	require.NoError(t, err)
	e, ok := resp.(*protocol.Error)
	require.True(t, ok)
	assert.Equal(t, protocol.MsgUnknownType, e.Message)
}

func TestNewArticleInvalidOutsideSequential(t *testing.T) {
	const addr = "127.0.0.1:19131"
	srv := New(config.Config{
		Host: "127.0.0.1", Port: mustPort(t, addr), Coordinator: true,
		CoordinatorAddr: addr, Servers: []string{addr},
		Consistency: config.Quorum, QuorumParams: config.QuorumConfig{N: 1, NR: 1, NW: 1},
		DisableLatencyJitter: true,
	})
	go srv.Start()
	t.Cleanup(srv.Stop)
	waitListening(t, addr)

	rpc := rpcclient.New()
	resp, err := rpc.Call(addr, &protocol.NewArticle{Type: protocol.TypeNewArticle})
	require.NoError(t, err)
	e, ok := resp.(*protocol.Error)
	require.True(t, ok)
	assert.Equal(t, protocol.MsgInvalidForModel, e.Message)
}
