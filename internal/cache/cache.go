// Package cache provides the TTL caches guarding the weather and news
// providers. Entries are evicted on read once expired; there is no background
// sweeper because the key space is tiny (one entry per user category set or
// location).
package cache

import (
	"sync"
	"time"
)

// TTL is a concurrency-safe key→value cache with a fixed time-to-live
type TTL[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
}

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// NewTTL creates a cache whose entries expire ttl after being set
func NewTTL[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key if it has not expired
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, resetting its TTL
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, fetchedAt: c.now()}
	c.mu.Unlock()
}

// Clear drops every entry
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// SetClock overrides the time source, for tests
func (c *TTL[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
