package cache

import "sync"

// MemoryCache is an in-memory implementation of the Cache interface,
// safe for concurrent use.
type MemoryCache[V any] struct {
	mu   sync.RWMutex
	data map[string]V
}

func NewMemoryCache[V any]() *MemoryCache[V] {
	return &MemoryCache[V]{
		data: make(map[string]V),
	}
}

func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, exists := c.data[key]
	return value, exists
}

func (c *MemoryCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = value
}

// Size returns the number of entries in the cache.
func (c *MemoryCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}
