package cache

import "time"

// LayeredCache checks a fast front layer before a persistent back layer.
type LayeredCache struct {
	memory Cache
	store  Cache
}

// NewLayeredCache creates a layered cache.
func NewLayeredCache(memory, store Cache) *LayeredCache {
	return &LayeredCache{memory: memory, store: store}
}

// Get checks memory first, then the store, promoting store hits.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.store.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.store.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.store.Delete(key)
}

func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.store.Clear()
}

// Close releases the store layer if it holds resources.
func (c *LayeredCache) Close() error {
	if closer, ok := c.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
