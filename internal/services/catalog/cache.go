// File: internal/services/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "catalog:"

// RedisCache shares catalog responses between gateway instances.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("redis cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

const scanBatch = 100

func (c *RedisCache) scan(ctx context.Context, match string, each func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := each(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) Count(ctx context.Context, prefix string) (int, error) {
	n := 0
	err := c.scan(ctx, cacheKeyPrefix+prefix+"*", func(keys []string) error {
		n += len(keys)
		return nil
	})
	return n, err
}

// Flush deletes only keys under the catalog prefix; the OTP store may share
// the same database.
func (c *RedisCache) Flush(ctx context.Context) (int, error) {
	n := 0
	err := c.scan(ctx, cacheKeyPrefix+"*", func(keys []string) error {
		deleted, err := c.client.Del(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("redis cache delete: %w", err)
		}
		n += int(deleted)
		return nil
	})
	return n, err
}

// MemoryCache is the single-instance fallback when no redis is configured.
// Values are stored encoded so callers never share mutable slices.
type MemoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(time.Hour, cleanupInterval)}
}

func (c *MemoryCache) Name() string { return "memory" }

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return false, nil
	}
	raw, ok := v.([]byte)
	if !ok {
		c.items.Delete(key)
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("memory cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memory cache encode %s: %w", key, err)
	}
	c.items.Set(key, raw, ttl)
	return nil
}

func (c *MemoryCache) Count(ctx context.Context, prefix string) (int, error) {
	n := 0
	for key := range c.items.Items() {
		if strings.HasPrefix(key, prefix) {
			n++
		}
	}
	return n, nil
}

func (c *MemoryCache) Flush(ctx context.Context) (int, error) {
	n := len(c.items.Items())
	c.items.Flush()
	return n, nil
}

// Len reports the number of cached entries, expired ones included until cleanup.
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
