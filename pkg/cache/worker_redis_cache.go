package cache

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "signup:"
	scanBatch          = 500
)

// RedisCache stores JSON values in Redis under a fixed key prefix.
// Pattern invalidation matches against the unprefixed key.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get decodes the JSON value stored under key into dest.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value as JSON.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTTL, ttl)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

// InvalidatePattern walks the prefix with SCAN and deletes keys matching the regex.
func (c *RedisCache) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("cache: invalid pattern %q: %w", pattern, err)
	}

	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", scanBatch).Result()
		if err != nil {
			return removed, err
		}

		matched := make([]string, 0, len(keys))
		for _, k := range keys {
			if re.MatchString(strings.TrimPrefix(k, c.prefix)) {
				matched = append(matched, k)
			}
		}
		if len(matched) > 0 {
			n, err := c.client.Del(ctx, matched...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
