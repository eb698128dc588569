package idalloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStartsAtOneAndIncreases(t *testing.T) {
	a := New()
	assert.Equal(t, int64(1), a.Next())
	assert.Equal(t, int64(2), a.Next())
	assert.Equal(t, int64(3), a.Next())
}

func TestNextIsStrictlyIncreasingUnderConcurrency(t *testing.T) {
	a := New()
	const n = 200

	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = a.Next()
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "id %d allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
