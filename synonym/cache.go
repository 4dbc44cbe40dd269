package synonym

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// cache is a bounded LRU with get-or-compute semantics. Concurrent misses
// for the same word share a single computation.
type cache struct {
	entries *lru.Cache[string, []string]
	group   singleflight.Group
}

func newCache(size int) (*cache, error) {
	entries, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &cache{entries: entries}, nil
}

// getOrCompute returns the cached value for word, computing and storing it on
// a miss. hit reports whether the value was already cached.
func (c *cache) getOrCompute(word string, compute func(string) []string) (value []string, hit bool) {
	if cached, ok := c.entries.Get(word); ok {
		return cached, true
	}
	v, _, _ := c.group.Do(word, func() (interface{}, error) {
		if cached, ok := c.entries.Get(word); ok {
			return cached, nil
		}
		computed := compute(word)
		c.entries.Add(word, computed)
		return computed, nil
	})
	return v.([]string), false
}

func (c *cache) contains(word string) bool {
	return c.entries.Contains(word)
}

func (c *cache) len() int {
	return c.entries.Len()
}
