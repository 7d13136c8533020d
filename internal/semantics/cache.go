package semantics

import "sync"

// Cache is a mutex-guarded memo table shared by clones of an Analysis.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
}

// NewCache creates an empty cache.
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V)}
}

// Get returns the cached value for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores value under key, replacing any previous entry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Gate returns the cached value or computes it. The lock is not held while
// compute runs, so two concurrent misses may both compute; the last one wins.
// Gate is not loop safe: compute re-entering the same key recurses.
func (c *Cache[K, V]) Gate(key K, compute func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Set(key, v)
	return v
}

// LoopSafeGate stores placeholder under key before computing, so a
// computation that asks for its own key observes the placeholder instead of
// recursing forever.
func (c *Cache[K, V]) LoopSafeGate(key K, placeholder V, compute func() V) V {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v
	}
	c.entries[key] = placeholder
	c.mu.Unlock()

	v := compute()
	c.Set(key, v)
	return v
}
