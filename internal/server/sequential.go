package server

import (
	"github.com/khitir/bulletin-board/internal/article"
	"github.com/khitir/bulletin-board/internal/protocol"
)

// Sequential consistency: every write lands on the coordinator first,
// which appends locally, acks the client, and fans the article out to
// every other server in the background. The fan-out is best-effort — a peer RPC
// failure is logged and does not change the client-visible result, and
// there is no later anti-entropy pass to close the resulting gap.

func (s *Server) postArticleSequential(m *protocol.PostArticle) protocol.Message {
	if !s.cfg.Coordinator {
		return s.forwardToCoordinator(m)
	}
	a := article.Article{ID: s.ids.Next(), Title: m.Title, Content: m.Content}
	return s.commitSequential(a)
}

func (s *Server) replyArticleSequential(m *protocol.ReplyArticle) protocol.Message {
	if !s.cfg.Coordinator {
		return s.forwardToCoordinator(m)
	}
	parent := m.ParentID
	a := article.Article{ID: s.ids.Next(), ParentID: &parent, Title: m.Title, Content: m.Content}
	return s.commitSequential(a)
}

// commitSequential appends a to the coordinator's own store, then
// broadcasts it to every peer. The peer acks are not awaited beyond
// logging: the response to the client follows local append only.
func (s *Server) commitSequential(a article.Article) protocol.Message {
	s.store.Append(a)
	s.metrics.writesTotal.WithLabelValues("ok").Inc()
	go s.propagateNewArticle(a)
	return protocol.PostSuccess{Type: protocol.TypePostSuccess, ArticleID: a.ID}
}

func (s *Server) propagateNewArticle(a article.Article) {
	msg := &protocol.NewArticle{Type: protocol.TypeNewArticle, Article: a}
	for _, addr := range s.cfg.Servers {
		if addr == s.cfg.Addr() {
			continue
		}
		if _, err := s.rpc.Call(addr, msg); err != nil {
			s.log.Warn().Err(err).Str("peer", addr).Int64("article_id", a.ID).Msg("failed to propagate article to peer")
		}
	}
}

func (s *Server) handleNewArticleSequential(m *protocol.NewArticle) protocol.Message {
	s.store.Append(m.Article)
	return protocol.ArticleAck{Type: protocol.TypeArticleAck, ArticleID: m.Article.ID}
}

// forwardToCoordinator re-sends the client's original write message to
// the coordinator verbatim and relays its response.
func (s *Server) forwardToCoordinator(msg protocol.Message) protocol.Message {
	resp, err := s.rpc.Call(s.cfg.CoordinatorAddr, msg)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to contact coordinator")
		return protocol.NewError(protocol.MsgCannotContactCoord)
	}
	return resp
}
