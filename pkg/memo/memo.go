// Package memo provides a keyed memoization cache with wholesale
// invalidation. A Cache is an explicit collaborator: callers own it and pass
// it to both the read path (Load) and the write path (Invalidate).
package memo

import (
	"sync"

	"github.com/okian/bncc/pkg/metrics"
)

// Stats summarizes cache activity.
type Stats struct {
	Entries       int   `json:"entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
}

// Cache maps a query identity to its last loaded result. Entries stay valid
// until Invalidate is called.
type Cache struct {
	mu            sync.Mutex
	entries       map[string]any
	hits          int64
	misses        int64
	invalidations int64
	// generation advances on every Invalidate.
	generation uint64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Get returns the value cached under key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	if ok {
		c.hits++
		metrics.RecordCacheHit()
	} else {
		c.misses++
		metrics.RecordCacheMiss()
	}
	return v, ok
}

// Set stores v under key.
func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

// Generation returns the current invalidation generation.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// SetIfGeneration stores v under key only if no Invalidate happened since gen
// was read. It reports whether v was stored.
func (c *Cache) SetIfGeneration(key string, v any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.entries[key] = v
	return true
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.generation++
	c.invalidations++
	metrics.RecordCacheInvalidation()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:       len(c.entries),
		Hits:          c.hits,
		Misses:        c.misses,
		Invalidations: c.invalidations,
	}
}

// Load returns the value cached under key, calling load on a miss. A failed
// load caches nothing, and neither does a load overtaken by Invalidate: its
// result is returned to the caller but the next read loads again.
func Load[T any](c *Cache, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	gen := c.Generation()
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.SetIfGeneration(key, v, gen)
	return v, nil
}
