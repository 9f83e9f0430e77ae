package store

import (
	"sync"
	"time"
)

// statsCache is a small in-process TTL cache for aggregate queries. Entries
// expire lazily on read; writers invalidate their keys on mutation.
type statsCache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]cacheEntry
}

type cacheEntry struct {
	value   interface{}
	expires time.Time
}

func newStatsCache(ttl time.Duration) *statsCache {
	return &statsCache{ttl: ttl, m: make(map[string]cacheEntry)}
}

func (c *statsCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *statsCache) Set(key string, value interface{}) {
	c.mu.Lock()
	c.m[key] = cacheEntry{value: value, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *statsCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}
