package server

import (
	"time"

	"github.com/khitir/bulletin-board/internal/article"
	"github.com/khitir/bulletin-board/internal/protocol"
)

// propagationInterval is the RYW background broadcast period.
const propagationInterval = 5 * time.Second

// Read-Your-Writes consistency: any server accepts a write locally
// (allocating an id remotely from the coordinator if it isn't one), and
// propagation happens out of band — a full-store broadcast every 5s,
// plus an on-demand gap fetch when a client switches servers with writes
// this server hasn't seen yet.

func (s *Server) handleClientConnect(m *protocol.ClientConnect) protocol.Message {
	missing := s.sessions.MissingRange(m.ClientID, m.WriteCounter)
	if len(missing) > 0 {
		// connect_ack is returned immediately; the gap fetch runs in the
		// background and the client may briefly read before its own write
		// becomes locally visible.
		go s.fetchMissingArticles(m.ClientID, missing)
	}
	return protocol.ConnectAck{Type: protocol.TypeConnectAck}
}

func (s *Server) postArticleRYW(m *protocol.PostArticle) protocol.Message {
	id, err := s.nextArticleIDRYW()
	if err != nil {
		return protocol.NewError(protocol.MsgFailedGetIDFromCoord)
	}
	a := article.Article{ID: id, Title: m.Title, Content: m.Content, ClientID: m.ClientID, WriteCounter: m.WriteCounter}
	return s.commitRYW(a)
}

func (s *Server) replyArticleRYW(m *protocol.ReplyArticle) protocol.Message {
	id, err := s.nextArticleIDRYW()
	if err != nil {
		return protocol.NewError(protocol.MsgFailedGetIDFromCoord)
	}
	parent := m.ParentID
	a := article.Article{ID: id, ParentID: &parent, Title: m.Title, Content: m.Content, ClientID: m.ClientID, WriteCounter: m.WriteCounter}
	return s.commitRYW(a)
}

func (s *Server) commitRYW(a article.Article) protocol.Message {
	s.store.Append(a)
	s.sessions.Advance(a.ClientID, a.WriteCounter)
	s.metrics.writesTotal.WithLabelValues("ok").Inc()
	return protocol.PostSuccess{Type: protocol.TypePostSuccess, ArticleID: a.ID}
}

// nextArticleIDRYW allocates an id locally if this server is the
// coordinator, or requests one remotely otherwise.
func (s *Server) nextArticleIDRYW() (int64, error) {
	if s.ids != nil {
		return s.ids.Next(), nil
	}
	resp, err := s.rpc.Call(s.cfg.CoordinatorAddr, &protocol.GetNextArticleID{Type: protocol.TypeGetNextArticleID})
	if err != nil {
		return 0, err
	}
	next, ok := resp.(*protocol.NextArticleID)
	if !ok {
		return 0, protocol.ErrUnknownType
	}
	return next.ArticleID, nil
}

// runPropagationLoop is the RYW background broadcaster: every 5s it sends
// its entire article list to every peer. No sender-side dedup; receivers
// dedup by id.
func (s *Server) runPropagationLoop() {
	ticker := time.NewTicker(propagationInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.propagateAllArticles()
			s.metrics.propagationRounds.WithLabelValues("ryw").Inc()
		}
	}
}

func (s *Server) propagateAllArticles() {
	articles := s.store.List()
	msg := &protocol.NewArticles{Type: protocol.TypeNewArticles, Articles: articles}
	for _, addr := range s.cfg.Servers {
		if addr == s.cfg.Addr() {
			continue
		}
		if _, err := s.rpc.Call(addr, msg); err != nil {
			s.log.Warn().Err(err).Str("peer", addr).Msg("failed to propagate articles to peer")
		}
	}
}

func (s *Server) handleNewArticles(m *protocol.NewArticles) protocol.Message {
	for _, a := range m.Articles {
		if s.store.Append(a) {
			s.sessions.Advance(a.ClientID, a.WriteCounter)
		}
	}
	return protocol.Ack{Type: protocol.TypeAck}
}

// fetchMissingArticles asks every peer for the articles clientID wrote
// with the given counters, appending whatever it gets back.
func (s *Server) fetchMissingArticles(clientID string, counters []int64) {
	req := &protocol.RequestMissingArticles{Type: protocol.TypeRequestMissingArticles, ClientID: clientID, Counters: counters}
	for _, addr := range s.cfg.Servers {
		if addr == s.cfg.Addr() {
			continue
		}
		resp, err := s.rpc.Call(addr, req)
		if err != nil {
			s.log.Warn().Err(err).Str("peer", addr).Msg("failed to request missing articles")
			continue
		}
		send, ok := resp.(*protocol.SendMissingArticles)
		if !ok {
			continue
		}
		for _, a := range send.Articles {
			if s.store.Append(a) {
				s.sessions.Advance(a.ClientID, a.WriteCounter)
			}
		}
	}
}

func (s *Server) handleRequestMissingArticles(m *protocol.RequestMissingArticles) protocol.Message {
	articles := s.store.ByClientCounters(m.ClientID, m.Counters)
	return protocol.SendMissingArticles{Type: protocol.TypeSendMissingArticles, Articles: articles}
}
