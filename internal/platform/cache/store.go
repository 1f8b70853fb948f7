// Package cache is a small in-process TTL cache with collapsed loads.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps string keys to V. Concurrent loads of one key share a single
// loader call; failed loads are not stored.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	group      singleflight.Group
	now        func() time.Time
}

// New returns a cache whose entries live for ttl. maxEntries <= 0 means
// unbounded; ttl <= 0 keeps entries until evicted.
func New[V any](ttl time.Duration, maxEntries int) *Cache[V] {
	return &Cache[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.expired(e, c.now()) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && c.expired(cur, c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, value V) {
	now := c.now()
	e := entry[V]{value: value}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = e
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrLoad returns the cached value or runs load once for all concurrent
// callers of key. The shared load is detached from any single caller's
// cancellation.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	out, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return out.(V), nil
}

func (c *Cache[V]) expired(e entry[V], now time.Time) bool {
	return c.ttl > 0 && !e.expiresAt.After(now)
}

// evictLocked drops expired entries, then the one closest to expiry.
func (c *Cache[V]) evictLocked(now time.Time) {
	var (
		victim string
		soonest time.Time
	)
	for key, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, key)
			continue
		}
		if victim == "" || e.expiresAt.Before(soonest) {
			victim, soonest = key, e.expiresAt
		}
	}
	if len(c.entries) >= c.maxEntries && victim != "" {
		delete(c.entries, victim)
	}
}
