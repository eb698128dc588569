package server

import (
	"time"

	"github.com/khitir/bulletin-board/internal/article"
	"github.com/khitir/bulletin-board/internal/protocol"
	"golang.org/x/exp/slices"
)

// antiEntropyInterval is the Quorum-mode background pull period.
const antiEntropyInterval = 30 * time.Second

// Quorum consistency: the coordinator allocates an id, writes it
// synchronously to a randomly chosen NW-sized subset of the full server
// list (self included if chosen), and succeeds only if at least NW acks
// come back. Reads merge a randomly chosen NR-sized subset; since
// NR+NW>N, every read quorum intersects every write quorum.

func (s *Server) postArticleQuorum(m *protocol.PostArticle) protocol.Message {
	if !s.cfg.Coordinator {
		return s.forwardToCoordinator(m)
	}
	a := article.Article{ID: s.ids.Next(), Title: m.Title, Content: m.Content}
	return s.commitQuorum(a)
}

func (s *Server) replyArticleQuorum(m *protocol.ReplyArticle) protocol.Message {
	if !s.cfg.Coordinator {
		return s.forwardToCoordinator(m)
	}
	parent := m.ParentID
	a := article.Article{ID: s.ids.Next(), ParentID: &parent, Title: m.Title, Content: m.Content}
	return s.commitQuorum(a)
}

// commitQuorum writes a to a randomly selected write quorum and reports
// success only once at least NW members have acked. A failed allocation
// is permanent: the id is never retried or reclaimed.
func (s *Server) commitQuorum(a article.Article) protocol.Message {
	quorum := s.selectQuorum(s.cfg.QuorumParams.NW)
	acks := 0
	msg := &protocol.WriteArticle{Type: protocol.TypeWriteArticle, Article: a}
	for _, addr := range quorum {
		if addr == s.cfg.Addr() {
			s.store.Append(a)
			acks++
			continue
		}
		resp, err := s.rpc.Call(addr, msg)
		if err != nil {
			s.log.Warn().Err(err).Str("peer", addr).Int64("article_id", a.ID).Msg("failed to write to quorum member")
			continue
		}
		if resp.MsgType() == protocol.TypeWriteAck {
			acks++
		}
	}

	if acks >= s.cfg.QuorumParams.NW {
		s.metrics.writesTotal.WithLabelValues("ok").Inc()
		return protocol.PostSuccess{Type: protocol.TypePostSuccess, ArticleID: a.ID}
	}
	s.metrics.writesTotal.WithLabelValues("quorum_failed").Inc()
	s.metrics.quorumFailures.Inc()
	return protocol.NewError(protocol.MsgFailedWriteQuorum)
}

func (s *Server) handleWriteArticle(m *protocol.WriteArticle) protocol.Message {
	s.store.Append(m.Article)
	return protocol.WriteAck{Type: protocol.TypeWriteAck}
}

// handleReadArticlesQuorum merges the listing view across a read quorum,
// keeping the first copy seen of each id, then sorts ascending by id.
func (s *Server) handleReadArticlesQuorum() protocol.Message {
	quorum := s.selectQuorum(s.cfg.QuorumParams.NR)
	merged := make(map[int64]article.Article)
	order := make([]int64, 0)

	addArticle := func(a article.Article) {
		if _, seen := merged[a.ID]; seen {
			return
		}
		merged[a.ID] = a
		order = append(order, a.ID)
	}

	for _, addr := range quorum {
		if addr == s.cfg.Addr() {
			for _, a := range s.store.List() {
				addArticle(a)
			}
			continue
		}
		resp, err := s.rpc.Call(addr, &protocol.GetArticles{Type: protocol.TypeGetArticles})
		if err != nil {
			s.log.Warn().Err(err).Str("peer", addr).Msg("failed to read from quorum member")
			continue
		}
		list, ok := resp.(*protocol.ArticlesList)
		if !ok {
			continue
		}
		for _, sm := range list.Articles {
			addArticle(article.Article{ID: sm.ID, ParentID: sm.ParentID, Title: sm.Title})
		}
	}

	out := make([]article.Summary, 0, len(order))
	for _, id := range order {
		out = append(out, merged[id].ToSummary())
	}
	slices.SortFunc(out, func(a, b article.Summary) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	s.metrics.readsTotal.WithLabelValues("list_quorum").Inc()
	return protocol.ArticlesList{Type: protocol.TypeArticlesList, Articles: out}
}

// handleReadArticleContentQuorum fetches a single article from a read
// quorum, returning the first hit (the merge is trivial at this
// granularity: every copy of a given article is identical).
func (s *Server) handleReadArticleContentQuorum(id int64) protocol.Message {
	quorum := s.selectQuorum(s.cfg.QuorumParams.NR)
	for _, addr := range quorum {
		if addr == s.cfg.Addr() {
			if a, ok := s.store.Get(id); ok {
				s.metrics.readsTotal.WithLabelValues("content_quorum").Inc()
				return protocol.ArticleContent{Type: protocol.TypeArticleContent, Article: a}
			}
			continue
		}
		resp, err := s.rpc.Call(addr, &protocol.GetArticleContent{Type: protocol.TypeGetArticleContent, ArticleID: id})
		if err != nil {
			s.log.Warn().Err(err).Str("peer", addr).Msg("failed to read content from quorum member")
			continue
		}
		if content, ok := resp.(*protocol.ArticleContent); ok {
			s.metrics.readsTotal.WithLabelValues("content_quorum").Inc()
			return *content
		}
	}
	return protocol.NewError(protocol.MsgArticleNotFound)
}

// selectQuorum picks size distinct servers uniformly at random from the
// full cluster list (self may be chosen), using the server's own PRNG so
// tests can inject a deterministic source and assert on the resulting
// selection.
func (s *Server) selectQuorum(size int) []string {
	servers := append([]string(nil), s.cfg.Servers...)
	if size > len(servers) {
		size = len(servers)
	}

	s.rngMu.Lock()
	s.rng.Shuffle(len(servers), func(i, j int) { servers[i], servers[j] = servers[j], servers[i] })
	s.rngMu.Unlock()

	return servers[:size]
}

// runAntiEntropyLoop is the Quorum-mode background convergence pass: every
// 30s, pull the full article list from every peer and merge in anything
// missing.
func (s *Server) runAntiEntropyLoop() {
	ticker := time.NewTicker(antiEntropyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.pullFromAllPeers()
			s.metrics.propagationRounds.WithLabelValues("quorum").Inc()
		}
	}
}

func (s *Server) pullFromAllPeers() {
	for _, addr := range s.cfg.Servers {
		if addr == s.cfg.Addr() {
			continue
		}
		resp, err := s.rpc.Call(addr, &protocol.GetArticles{Type: protocol.TypeGetArticles})
		if err != nil {
			s.log.Warn().Err(err).Str("peer", addr).Msg("anti-entropy pull failed")
			continue
		}
		list, ok := resp.(*protocol.ArticlesList)
		if !ok {
			continue
		}
		for _, sm := range list.Articles {
			if _, exists := s.store.Get(sm.ID); exists {
				continue
			}
			cResp, err := s.rpc.Call(addr, &protocol.GetArticleContent{Type: protocol.TypeGetArticleContent, ArticleID: sm.ID})
			if err != nil {
				s.log.Warn().Err(err).Str("peer", addr).Int64("article_id", sm.ID).Msg("anti-entropy content fetch failed")
				continue
			}
			if content, ok := cResp.(*protocol.ArticleContent); ok {
				s.store.Append(content.Article)
			}
		}
	}
}
