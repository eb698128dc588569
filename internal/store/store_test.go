package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khitir/bulletin-board/internal/article"
)

func ptr(v int64) *int64 { return &v }

func TestAppendDedupesByID(t *testing.T) {
	s := New()

	added := s.Append(article.Article{ID: 1, Title: "first"})
	assert.True(t, added)

	added = s.Append(article.Article{ID: 1, Title: "duplicate-with-different-title"})
	assert.False(t, added, "a second Append with the same id must be rejected")

	a, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "first", a.Title, "the original copy must survive a duplicate append")
	assert.Equal(t, 1, s.Len())
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := New()
	s.Append(article.Article{ID: 3, Title: "c"})
	s.Append(article.Article{ID: 1, Title: "a"})
	s.Append(article.Article{ID: 2, Title: "b"})

	got := s.List()
	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestSortedByIDOrdersAscending(t *testing.T) {
	s := New()
	s.Append(article.Article{ID: 3})
	s.Append(article.Article{ID: 1})
	s.Append(article.Article{ID: 2})

	got := s.SortedByID()
	require.Len(t, got, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestByClientCounters(t *testing.T) {
	s := New()
	s.Append(article.Article{ID: 1, ClientID: "cid-a", WriteCounter: 1})
	s.Append(article.Article{ID: 2, ClientID: "cid-a", WriteCounter: 2})
	s.Append(article.Article{ID: 3, ClientID: "cid-b", WriteCounter: 1})

	got := s.ByClientCounters("cid-a", []int64{2, 3})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestReplyParentIDNeverReachesOwnID(t *testing.T) {
	s := New()
	s.Append(article.Article{ID: 1, Title: "root"})
	s.Append(article.Article{ID: 2, ParentID: ptr(1), Title: "reply"})

	reply, ok := s.Get(2)
	require.True(t, ok)
	require.NotNil(t, reply.ParentID)
	assert.Less(t, *reply.ParentID, reply.ID)
}
