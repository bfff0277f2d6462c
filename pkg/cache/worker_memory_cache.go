package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// MemoryCache adapts TTLCache to the JSON-valued cache port.
// Values are stored encoded so callers never share mutable state through the cache.
type MemoryCache struct {
	ttl *TTLCache
}

func NewMemoryCache(ttl *TTLCache) *MemoryCache {
	return &MemoryCache{ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := c.ttl.Get(key)
	if !ok {
		return false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.ttl.Set(key, data, ttl)
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.ttl.Delete(key)
	return nil
}

func (c *MemoryCache) InvalidatePattern(_ context.Context, pattern string) (int, error) {
	return c.ttl.InvalidatePattern(pattern)
}

// Stats exposes the underlying TTL cache counters.
func (c *MemoryCache) Stats() Stats {
	return c.ttl.Stats()
}
