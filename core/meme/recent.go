package meme

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultRecentLimit = 100

// RecentSet remembers the most recently served image URLs.
// Once the limit is reached every insertion evicts the oldest entry.
// Entries are never read with Get, so the cache order is insertion order.
type RecentSet struct {
	limit int
	cache *lru.Cache[string, struct{}]
}

func NewRecentSet(limit int) *RecentSet {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	cache, err := lru.New[string, struct{}](limit)
	if err != nil {
		panic(err)
	}

	return &RecentSet{
		limit: limit,
		cache: cache,
	}
}

// Add inserts the url and reports whether it was absent.
// Re-adding a present url does not refresh its position.
func (s *RecentSet) Add(url string) bool {
	ok, _ := s.cache.ContainsOrAdd(url, struct{}{})
	return !ok
}

func (s *RecentSet) Has(url string) bool {
	return s.cache.Contains(url)
}

func (s *RecentSet) Len() int {
	return s.cache.Len()
}

func (s *RecentSet) Limit() int {
	return s.limit
}

// Slice returns the remembered urls from oldest to newest.
func (s *RecentSet) Slice() []string {
	return s.cache.Keys()
}
