package provider

import (
	"sync"

	"github.com/ecolens/ecolens/internal/domain/model"
)

// resultCache is a bounded map of normalized item name to analysis. When
// full, the oldest insertion is evicted. Analyses for a given item are
// stable enough that staleness is not a concern at this size.
type resultCache struct {
	mu      sync.Mutex
	results map[string]model.Analysis
	order   []string
	maxSize int
}

func newResultCache(maxSize int) *resultCache {
	if maxSize < 1 {
		maxSize = defaultCacheSize
	}
	return &resultCache{
		results: make(map[string]model.Analysis, maxSize),
		maxSize: maxSize,
	}
}

func (c *resultCache) get(key string) (model.Analysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.results[key]
	return a, ok
}

func (c *resultCache) put(key string, a model.Analysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.results[key]; ok {
		c.results[key] = a
		return
	}
	if len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.results, oldest)
	}
	c.results[key] = a
	c.order = append(c.order, key)
}
