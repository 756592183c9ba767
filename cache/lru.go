package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultTTL  = 5 * time.Minute
	DefaultSize = 4096
)

// LRUCache implements ContextCache on a size-bounded LRU whose entries also
// expire after the configured TTL.
type LRUCache struct {
	lru *expirable.LRU[string, *Entry]
	now func() time.Time
}

// Option configures an LRUCache.
type Option func(*LRUCache)

// WithClock overrides the clock used to stamp and age entries.
func WithClock(now func() time.Time) Option {
	return func(c *LRUCache) { c.now = now }
}

// NewLRUCache creates a cache holding at most size users for up to ttl.
func NewLRUCache(size int, ttl time.Duration, opts ...Option) *LRUCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &LRUCache{
		lru: expirable.NewLRU[string, *Entry](size, nil, ttl),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read implements Reader interface
func (c *LRUCache) Read(userID string, maxAge time.Duration) (*Entry, bool) {
	e, ok := c.lru.Get(userID)
	if !ok || e == nil {
		return nil, false
	}
	if maxAge > 0 && c.now().Sub(e.FetchedAt) > maxAge {
		return e, false // Return entry but mark as expired
	}
	return e, true
}

// Write implements Writer interface
func (c *LRUCache) Write(userID string, entry *Entry) {
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = c.now()
	}
	c.lru.Add(userID, entry)
}

// Invalidate implements Invalidator interface
func (c *LRUCache) Invalidate(userID string) {
	c.lru.Remove(userID)
}

// Len reports the number of cached users.
func (c *LRUCache) Len() int { return c.lru.Len() }

var _ ContextCache = (*LRUCache)(nil)
