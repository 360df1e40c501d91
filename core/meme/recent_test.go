package meme_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"memebot/core/meme"
)

func TestRecentSet_Add(t *testing.T) {
	set := meme.NewRecentSet(3)
	assert.True(t, set.Add("a"))
	assert.True(t, set.Add("b"))
	assert.False(t, set.Add("a"))
	assert.True(t, set.Add("c"))
	assert.Equal(t, []string{"a", "b", "c"}, set.Slice())

	// a is re-added above but keeps its position, so it is evicted first
	assert.True(t, set.Add("d"))
	assert.Equal(t, []string{"b", "c", "d"}, set.Slice())
	assert.False(t, set.Has("a"))
	assert.True(t, set.Add("a"))
	assert.Equal(t, []string{"c", "d", "a"}, set.Slice())
}

func TestRecentSet_Bounded(t *testing.T) {
	set := meme.NewRecentSet(0)
	assert.Equal(t, meme.DefaultRecentLimit, set.Limit())
	for i := 0; i < 101; i++ {
		assert.True(t, set.Add(fmt.Sprintf("https://i.redd.it/%d.jpg", i)))
		assert.LessOrEqual(t, set.Len(), 100)
	}

	assert.Equal(t, 100, set.Len())
	assert.False(t, set.Has("https://i.redd.it/0.jpg"))
	assert.True(t, set.Has("https://i.redd.it/1.jpg"))
	assert.True(t, set.Has("https://i.redd.it/100.jpg"))
}

func TestRecentSet_ConcurrentAdd(t *testing.T) {
	set := meme.NewRecentSet(10)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.Add("https://i.redd.it/same.jpg") {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, accepted)
}

func TestRecentSet_LookupKeepsInsertionOrder(t *testing.T) {
	set := meme.NewRecentSet(2)
	assert.True(t, set.Add("a"))
	assert.True(t, set.Add("b"))
	assert.True(t, set.Has("a"))
	assert.False(t, set.Add("a"))

	assert.True(t, set.Add("c"))
	assert.Equal(t, []string{"b", "c"}, set.Slice())
	assert.False(t, set.Has("a"))
}
