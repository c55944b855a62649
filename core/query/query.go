package query

// Cacheable lets a query override its registration's caching policy at the
// instance level. Queries without the capability follow their registration,
// which caches by default.
type Cacheable interface {
	Cacheable() bool
}

// CacheKeyer lets a query supply an explicit cache key, used verbatim
// instead of the derived composition of type name and field values.
type CacheKeyer interface {
	CacheKey() string
}
