// Package cache defines the narrow key-value contract the query bus uses to
// front an external cache provider, plus a concurrent in-memory TTL
// implementation suitable for single-process deployments and tests.
//
// Provider failures never fail a dispatch: buses treat a failing Get as a
// miss and a failing Put or Evict as a logged no-op. Implementations signal
// provider-level failures by wrapping ErrUnavailable:
//
//	v, ok, err := c.Get(ctx, key)
//	if err != nil {
//	    // degraded to miss by the caller
//	}
//
// For a distributed provider see integration/cache/redis.
package cache
