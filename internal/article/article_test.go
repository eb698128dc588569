package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRoot(t *testing.T) {
	root := Article{ID: 1}
	assert.True(t, root.IsRoot())

	parent := int64(1)
	reply := Article{ID: 2, ParentID: &parent}
	assert.False(t, reply.IsRoot())
}

func TestToSummaryDropsContentAndRYWFields(t *testing.T) {
	a := Article{
		ID:           1,
		Title:        "T",
		Content:      "body text",
		ClientID:     "client-1",
		WriteCounter: 3,
	}
	s := a.ToSummary()
	assert.Equal(t, Summary{ID: 1, Title: "T"}, s)
}
