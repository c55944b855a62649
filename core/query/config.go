package query

import "time"

// DefaultTTL is the retention applied to cached results when a
// registration leaves TTL at its zero value and the bus default is unset.
const DefaultTTL = 5 * time.Minute

// EvictionRule declares that the successful completion of a command evicts
// this registration's cache entries. Matching is an explicit key-equality
// rule: the command's fields supply the values of the query's key fields,
// the exact key is recomputed, and that single entry is evicted.
type EvictionRule struct {
	// Command is the name of the evicting command type.
	Command string

	// Fields maps a query key field to the command field carrying the same
	// subject, for when the two types name it differently. Key fields
	// absent from the map are read from the command field of the same name.
	Fields map[string]string
}

// Config is the per-registration caching policy. The zero value caches
// with the bus defaults and derives keys from all exported fields.
type Config struct {
	// CacheDisabled turns caching off for this registration.
	CacheDisabled bool

	// TTL bounds how long results stay cached. Zero means the bus default.
	TTL time.Duration

	// KeyFields is the ordered subset of query fields composing the cache
	// key. Empty means all exported fields in declaration order.
	// Cross-invalidation requires explicit key fields.
	KeyFields []string

	// EvictOn lists the commands whose success evicts this registration's
	// cache entries.
	EvictOn []EvictionRule
}

// ConfigOption customizes a registration's caching policy.
type ConfigOption func(*Config)

// WithoutCache disables result caching for the registration.
func WithoutCache() ConfigOption {
	return func(c *Config) {
		c.CacheDisabled = true
	}
}

// WithTTL sets how long results stay cached.
func WithTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.TTL = ttl
	}
}

// WithKeyFields sets the ordered query fields composing the cache key.
func WithKeyFields(fields ...string) ConfigOption {
	return func(c *Config) {
		c.KeyFields = fields
	}
}

// WithEvictOn declares commands whose success evicts this registration's
// cache entries.
func WithEvictOn(rules ...EvictionRule) ConfigOption {
	return func(c *Config) {
		c.EvictOn = append(c.EvictOn, rules...)
	}
}
