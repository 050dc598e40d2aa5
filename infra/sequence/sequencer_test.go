package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	assert.Equal(t, uint64(1), s.Next())
	assert.Equal(t, uint64(2), s.Next())
	assert.Equal(t, uint64(2), s.Current())

	s = New(41)
	assert.Equal(t, uint64(42), s.Next())
}

func TestSequencerConcurrentUnique(t *testing.T) {
	s := New(0)

	const n = 1000
	seen := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = s.Next()
		}(i)
	}
	wg.Wait()

	uniq := map[uint64]struct{}{}
	for _, v := range seen {
		uniq[v] = struct{}{}
	}
	assert.Len(t, uniq, n)
	assert.Equal(t, uint64(n), s.Current())
}
