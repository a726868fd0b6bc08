// Package cache provides the bounded, TTL-based result cache. Eviction is
// strict insertion order (FIFO), not LRU: at capacity the single
// oldest-inserted key is dropped, regardless of access patterns.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	payload    V
	insertedAt time.Time
}

// Cache is a mutex-guarded bounded map with per-entry TTL. Entries older
// than the TTL are treated as absent on Get and evicted lazily.
type Cache[V any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]entry[V]
	order    []string // insertion order, oldest first

	now func() time.Time // overridable in tests
}

// New creates a cache with the given TTL and capacity. A non-positive
// capacity disables bounding; a non-positive TTL makes every Get a miss.
func New[V any](ttl time.Duration, capacity int) *Cache[V] {
	return &Cache[V]{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]entry[V]),
		now:      time.Now,
	}
}

// Get returns the payload for key if present and fresh. Stale entries are
// evicted and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.ttl <= 0 || c.now().Sub(e.insertedAt) >= c.ttl {
		c.remove(key)
		return zero, false
	}
	return e.payload, true
}

// Put stores a payload. At capacity the single oldest-inserted key is
// evicted first. Re-putting an existing key refreshes its payload and
// insertion time without changing its queue position.
func (c *Cache[V]) Put(key string, payload V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry[V]{payload: payload, insertedAt: c.now()}
		return
	}

	if c.capacity > 0 && len(c.entries) >= c.capacity {
		for len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			if _, live := c.entries[oldest]; live {
				delete(c.entries, oldest)
				break
			}
		}
	}

	c.entries[key] = entry[V]{payload: payload, insertedAt: c.now()}
	c.order = append(c.order, key)
}

// Len returns the number of stored entries, including stale ones not yet
// evicted.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove deletes key from the map and its slot in the insertion queue.
// Callers must hold the mutex.
func (c *Cache[V]) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
