package fetch

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Cache memoizes decoded responses by resource identifier for the lifetime of
// the process. Entries never expire; they are replaced only after Delete.
// Concurrent writers to the same key are last-write-wins.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any

	hits   metric.Int64Counter
	misses metric.Int64Counter
}

// NewCache creates an empty cache. One instance is shared by every handle.
func NewCache() *Cache {
	meter := otel.Meter("shopfront/fetch")
	hits, err := meter.Int64Counter("fetch_cache_hits", metric.WithDescription("Resource lookups served from the cache"))
	if err != nil {
		panic(fmt.Sprintf("failed to create fetch_cache_hits counter: %v", err))
	}
	misses, err := meter.Int64Counter("fetch_cache_misses", metric.WithDescription("Resource lookups that required a network call"))
	if err != nil {
		panic(fmt.Sprintf("failed to create fetch_cache_misses counter: %v", err))
	}
	return &Cache{
		entries: make(map[string]any),
		hits:    hits,
		misses:  misses,
	}
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(context.Background(), 1)
	} else {
		c.misses.Add(context.Background(), 1)
	}
	return value, ok
}

// Set stores value under key, overwriting any previous entry.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Delete removes key. Deleting a missing key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// peek reads key without recording a lookup.
func (c *Cache) peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}
