package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/praxislabs/cqrs/core/cache"
)

const defaultScanBatchSize = 1000

// Cache stores query results in Redis as JSON values under a key prefix.
// It implements the engine's cache contract; provider failures surface as
// cache.ErrUnavailable so the query bus can degrade to a miss.
type Cache struct {
	client        *goredis.Client
	prefix        string
	scanBatchSize int64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithKeyPrefix sets the prefix applied to every stored key. Defaults to
// "cqrs:".
func WithKeyPrefix(prefix string) CacheOption {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithScanBatchSize sets how many keys Clear scans per round trip.
func WithScanBatchSize(size int) CacheOption {
	return func(c *Cache) {
		if size > 0 {
			c.scanBatchSize = int64(size)
		}
	}
}

// NewCache wraps a connected Redis client as a query result cache.
func NewCache(client *goredis.Client, opts ...CacheOption) *Cache {
	c := &Cache{
		client:        client,
		prefix:        "cqrs:",
		scanBatchSize: defaultScanBatchSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the decoded value stored under key, reporting whether the
// key was present.
func (c *Cache) Get(ctx context.Context, key string) (any, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", cache.ErrUnavailable, err)
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		// A corrupt entry behaves like a miss after eviction.
		_, _ = c.Evict(ctx, key)
		return nil, false, nil
	}
	return value, true, nil
}

// Put stores value under key without expiration.
func (c *Cache) Put(ctx context.Context, key string, value any) error {
	return c.PutTTL(ctx, key, value, 0)
}

// PutTTL stores value under key for the given retention. Zero ttl means
// no expiration.
func (c *Cache) PutTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", cache.ErrUnavailable, err)
	}
	return nil
}

// Evict removes key, reporting whether an entry was present.
func (c *Cache) Evict(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Del(ctx, c.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", cache.ErrUnavailable, err)
	}
	return n > 0, nil
}

// Clear removes every entry under the cache's prefix using SCAN, so it
// never blocks Redis the way KEYS would.
func (c *Cache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", c.scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("%w: %w", cache.ErrUnavailable, err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %w", cache.ErrUnavailable, err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
