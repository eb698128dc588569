package server

import (
	"github.com/khitir/bulletin-board/internal/article"
	"github.com/khitir/bulletin-board/internal/config"
	"github.com/khitir/bulletin-board/internal/protocol"
)

// dispatch routes a decoded message to its handler, applying the
// type/mode compatibility rules: new_article, new_articles, write_article
// and request_missing_articles are each valid in exactly one consistency
// model, and the wrong model for such a type yields
// MsgInvalidForModel rather than a panic or a silent no-op.
func (s *Server) dispatch(msg protocol.Message) protocol.Message {
	switch m := msg.(type) {
	case *protocol.ClientConnect:
		if s.cfg.Consistency != config.ReadYourWrites {
			return protocol.ConnectAck{Type: protocol.TypeConnectAck}
		}
		return s.handleClientConnect(m)

	case *protocol.PostArticle:
		switch s.cfg.Consistency {
		case config.Sequential:
			return s.postArticleSequential(m)
		case config.ReadYourWrites:
			return s.postArticleRYW(m)
		case config.Quorum:
			return s.postArticleQuorum(m)
		}
		return protocol.NewError(protocol.MsgInvalidForModel)

	case *protocol.ReplyArticle:
		switch s.cfg.Consistency {
		case config.Sequential:
			return s.replyArticleSequential(m)
		case config.ReadYourWrites:
			return s.replyArticleRYW(m)
		case config.Quorum:
			return s.replyArticleQuorum(m)
		}
		return protocol.NewError(protocol.MsgInvalidForModel)

	case *protocol.ReadArticles:
		return s.handleReadArticles()

	case *protocol.ReadArticleContent:
		return s.handleReadArticleContent(m.ArticleID)

	case *protocol.NewArticle:
		if s.cfg.Consistency != config.Sequential {
			return protocol.NewError(protocol.MsgInvalidForModel)
		}
		return s.handleNewArticleSequential(m)

	case *protocol.NewArticles:
		if s.cfg.Consistency != config.ReadYourWrites {
			return protocol.NewError(protocol.MsgInvalidForModel)
		}
		return s.handleNewArticles(m)

	case *protocol.WriteArticle:
		if s.cfg.Consistency != config.Quorum {
			return protocol.NewError(protocol.MsgInvalidForModel)
		}
		return s.handleWriteArticle(m)

	case *protocol.RequestMissingArticles:
		if s.cfg.Consistency != config.ReadYourWrites {
			return protocol.NewError(protocol.MsgInvalidForModel)
		}
		return s.handleRequestMissingArticles(m)

	case *protocol.GetArticles:
		return s.handleGetArticles()

	case *protocol.GetArticleContent:
		return s.handleGetArticleContent(m.ArticleID)

	case *protocol.GetNextArticleID:
		return s.handleGetNextArticleID()

	default:
		return protocol.NewError(protocol.MsgUnknownType)
	}
}

// handleGetArticles answers the common (mode-independent) full-list
// fetch used by Quorum's read-quorum merge and anti-entropy pull.
func (s *Server) handleGetArticles() protocol.Message {
	return protocol.ArticlesList{Type: protocol.TypeArticlesList, Articles: summaries(s.store.List())}
}

// handleGetArticleContent answers the common single-article fetch used by
// Quorum's read-quorum merge.
func (s *Server) handleGetArticleContent(id int64) protocol.Message {
	a, ok := s.store.Get(id)
	if !ok {
		return protocol.NewError(protocol.MsgArticleNotFound)
	}
	return protocol.ArticleContent{Type: protocol.TypeArticleContent, Article: a}
}

// handleGetNextArticleID serves remote id allocation (RYW peers ask the
// coordinator). Not mode-gated: only coordinator-ness matters.
func (s *Server) handleGetNextArticleID() protocol.Message {
	if s.ids == nil {
		return protocol.NewError(protocol.MsgNotCoordinator)
	}
	return protocol.NextArticleID{Type: protocol.TypeNextArticleID, ArticleID: s.ids.Next()}
}

// handleReadArticles and handleReadArticleContent vary by mode: Sequential
// and RYW read the local store directly; Quorum merges a read quorum.
func (s *Server) handleReadArticles() protocol.Message {
	switch s.cfg.Consistency {
	case config.Quorum:
		return s.handleReadArticlesQuorum()
	default:
		return protocol.ArticlesList{Type: protocol.TypeArticlesList, Articles: summaries(s.store.List())}
	}
}

func (s *Server) handleReadArticleContent(id int64) protocol.Message {
	switch s.cfg.Consistency {
	case config.Quorum:
		return s.handleReadArticleContentQuorum(id)
	default:
		return s.handleGetArticleContent(id)
	}
}

func summaries(articles []article.Article) []article.Summary {
	out := make([]article.Summary, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.ToSummary())
	}
	return out
}
