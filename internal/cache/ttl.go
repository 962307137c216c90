// Package cache provides a bounded in-memory TTL cache used by the
// aggregation services. Staleness is checked at read time; once the cache
// grows past its capacity the oldest entry is evicted.
package cache

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	// DefaultTTL is the freshness window applied when Set is used.
	DefaultTTL = 15 * time.Minute

	// DefaultCapacity bounds the number of entries held in memory.
	DefaultCapacity = 50
)

// Config holds configuration for a TTL cache.
type Config struct {
	// TTL is the default freshness window (default: 15 minutes).
	TTL time.Duration

	// Capacity is the maximum number of entries (default: 50).
	// When exceeded, the oldest entry is evicted.
	Capacity int

	// Now allows tests to supply a virtual clock (default: time.Now).
	Now func() time.Time
}

// TTL is a bounded cache with per-entry expiry.
type TTL[T any] struct {
	mu         sync.RWMutex
	entries    map[string]*entry[T]
	defaultTTL time.Duration
	capacity   int
	now        func() time.Time
}

type entry[T any] struct {
	value     T
	storedAt  time.Time
	expiresAt time.Time
}

// New creates a new TTL cache.
func New[T any](cfg Config) *TTL[T] {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TTL[T]{
		entries:    make(map[string]*entry[T]),
		defaultTTL: ttl,
		capacity:   capacity,
		now:        now,
	}
}

// Get returns the cached value for key if it is still fresh.
// Stale entries are treated as misses and removed.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}

	return e.value, true
}

// Set stores a value with the default TTL.
func (c *TTL[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL.
func (c *TTL[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &entry[T]{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}

	if len(c.entries) > c.capacity {
		c.evictOldest()
	}
}

// evictOldest removes the entry with the earliest store time.
// Caller must hold the write lock.
func (c *TTL[T]) evictOldest() {
	var oldestKey string
	var oldestAt time.Time

	for key, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of entries, fresh or stale.
func (c *TTL[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// InvalidateAll clears the cache.
func (c *TTL[T]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[T])
}

// Stats returns cache statistics.
func (c *TTL[T]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	fresh := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			fresh++
		}
	}

	return Stats{
		Entries:      len(c.entries),
		FreshEntries: fresh,
		Capacity:     c.capacity,
	}
}

// Stats contains cache statistics.
type Stats struct {
	Entries      int `json:"entries"`
	FreshEntries int `json:"freshEntries"`
	Capacity     int `json:"capacity"`
}

// Key builds a cache key from an operation name and its parameters.
// Parameters are JSON-encoded so distinct queries never collide.
func Key(op string, params any) string {
	b, err := json.Marshal(params)
	if err != nil {
		return op
	}
	return op + "_" + string(b)
}
