package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nutrihelper/backend/internal/domain"
)

// DefaultSize is the number of distinct keys kept before the least recently used one is evicted
const DefaultSize = 256

// MemoryCache is a thread-safe in-memory cache with a fixed capacity and LRU eviction.
// Entries live for the process lifetime unless evicted.
type MemoryCache[V any] struct {
	data *lru.Cache[string, V]
}

// NewMemoryCache creates a new in-memory cache holding at most size entries
func NewMemoryCache[V any](size int) (*MemoryCache[V], error) {
	if size <= 0 {
		size = DefaultSize
	}

	data, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}

	return &MemoryCache[V]{data: data}, nil
}

// Get retrieves a value from the cache and marks it as recently used
func (c *MemoryCache[V]) Get(ctx context.Context, key string) (V, error) {
	value, ok := c.data.Get(key)
	if !ok {
		var zero V
		return zero, domain.ErrCacheMiss
	}
	return value, nil
}

// Set stores a value in the cache, evicting the least recently used entry when full
func (c *MemoryCache[V]) Set(ctx context.Context, key string, value V) error {
	c.data.Add(key, value)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache[V]) Delete(ctx context.Context, key string) error {
	c.data.Remove(key)
	return nil
}

// Exists checks if a key is cached without touching its recency
func (c *MemoryCache[V]) Exists(ctx context.Context, key string) (bool, error) {
	return c.data.Contains(key), nil
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache[V]) Size() int {
	return c.data.Len()
}

// Clear removes all items from the cache
func (c *MemoryCache[V]) Clear() {
	c.data.Purge()
}
