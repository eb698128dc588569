// Package store holds the in-memory, per-server article collection. One
// mutex guards the whole collection, and every access funnels through it.
// Articles are never overwritten — Append is the only mutator, and it
// deduplicates by id.
package store

import (
	"sort"
	"sync"

	"github.com/khitir/bulletin-board/internal/article"
)

// Store is the article collection a single server owns. Safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex
	articles map[int64]article.Article
	order    []int64 // insertion order, for stable non-sorted listings
}

// New returns an empty Store.
func New() *Store {
	return &Store{articles: make(map[int64]article.Article)}
}

// Append adds a to the store unless an article with the same id is already
// present. It reports whether the article was newly added.
func (s *Store) Append(a article.Article) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.articles[a.ID]; exists {
		return false
	}
	s.articles[a.ID] = a
	s.order = append(s.order, a.ID)
	return true
}

// Get returns the article with the given id, if present.
func (s *Store) Get(id int64) (article.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	return a, ok
}

// List returns every article currently held, in insertion order.
func (s *Store) List() []article.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]article.Article, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.articles[id])
	}
	return out
}

// SortedByID returns every article currently held, sorted ascending by id,
// as required by the Quorum list endpoint.
func (s *Store) SortedByID() []article.Article {
	out := s.List()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByClientCounters returns the articles written by clientID whose
// WriteCounter is in counters, used to answer request_missing_articles.
func (s *Store) ByClientCounters(clientID string, counters []int64) []article.Article {
	wanted := make(map[int64]bool, len(counters))
	for _, c := range counters {
		wanted[c] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []article.Article
	for _, id := range s.order {
		a := s.articles[id]
		if a.ClientID == clientID && wanted[a.WriteCounter] {
			out = append(out, a)
		}
	}
	return out
}

// Len reports how many articles the store currently holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
