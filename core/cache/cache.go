package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable signals a provider-level failure. Callers downgrade it to
// cache-miss behavior; it is never surfaced to dispatch callers.
var ErrUnavailable = errors.New("cache: provider unavailable")

// Cache is the key-value contract fronting an external cache provider.
// All operations must be safe for concurrent use; per-key atomicity is the
// provider's responsibility.
type Cache interface {
	// Get returns the value stored under key and whether it was present.
	// An ordinary miss is (nil, false, nil), not an error.
	Get(ctx context.Context, key string) (any, bool, error)

	// Put stores value under key with the provider's default retention.
	Put(ctx context.Context, key string, value any) error

	// PutTTL stores value under key, expiring after ttl.
	// A non-positive ttl falls back to the provider's default retention.
	PutTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// Evict removes key, reporting whether an entry was removed.
	Evict(ctx context.Context, key string) (bool, error)

	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error
}

// Noop is a Cache that stores nothing. Every Get is a miss and every write
// succeeds silently. Used when caching is disabled.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) (any, bool, error) { return nil, false, nil }

func (Noop) Put(ctx context.Context, key string, value any) error { return nil }

func (Noop) PutTTL(ctx context.Context, key string, value any, ttl time.Duration) error { return nil }

func (Noop) Evict(ctx context.Context, key string) (bool, error) { return false, nil }

func (Noop) Clear(ctx context.Context) error { return nil }
