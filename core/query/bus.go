package query

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/praxislabs/cqrs/core/authz"
	"github.com/praxislabs/cqrs/core/cache"
	"github.com/praxislabs/cqrs/core/execution"
	"github.com/praxislabs/cqrs/core/logger"
	"github.com/praxislabs/cqrs/core/metrics"
	"github.com/praxislabs/cqrs/pkg/async"
)

// Bus routes queries through the authorize → cache-lookup → execute →
// cache-populate pipeline.
//
// Example:
//
//	bus := query.NewBus(registry,
//	    query.WithCache(cache.NewMemory()),
//	    query.WithRecorder(recorder),
//	)
//	balance, err := bus.Query(ctx, GetBalance{AccountID: "A1"}).Await()
type Bus struct {
	registry       *Registry
	authorizer     *authz.Stage
	cache          cache.Cache
	cachingEnabled bool
	defaultTTL     time.Duration
	timeout        time.Duration
	recorder       metrics.Recorder
	logger         *slog.Logger
	middleware     []Middleware
}

// Option configures a Bus.
type Option func(*Bus)

// WithAuthorizer sets the authorization stage. Defaults to an enabled
// stage without a backend.
func WithAuthorizer(a *authz.Stage) Option {
	return func(b *Bus) {
		b.authorizer = a
	}
}

// WithCache sets the cache fronting query results. Without a cache every
// query invokes its handler.
func WithCache(c cache.Cache) Option {
	return func(b *Bus) {
		b.cache = c
	}
}

// WithCachingEnabled toggles caching globally, overriding per-registration
// policy. Enabled by default.
func WithCachingEnabled(enabled bool) Option {
	return func(b *Bus) {
		b.cachingEnabled = enabled
	}
}

// WithDefaultTTL sets the retention applied to registrations that leave
// TTL at its zero value. Defaults to DefaultTTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(b *Bus) {
		if ttl > 0 {
			b.defaultTTL = ttl
		}
	}
}

// WithTimeout bounds a whole query call. Zero, the default, means no
// deadline; individual handlers still honour the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(b *Bus) {
		b.timeout = timeout
	}
}

// WithRecorder sets the metrics sink. Defaults to the no-op recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Bus) {
		b.recorder = r
	}
}

// WithLogger sets the logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithMiddleware sets middleware applied to every handler, in order.
// Must be configured at construction time and cannot be changed later.
func WithMiddleware(middleware ...Middleware) Option {
	return func(b *Bus) {
		b.middleware = middleware
	}
}

// NewBus creates a query bus over the given registry.
func NewBus(registry *Registry, opts ...Option) *Bus {
	b := &Bus{
		registry:       registry,
		authorizer:     authz.NewStage(),
		cachingEnabled: true,
		defaultTTL:     DefaultTTL,
		recorder:       metrics.Noop{},
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Query dispatches a query through the pipeline and returns a cancellable
// future for its result.
func (b *Bus) Query(ctx context.Context, q any) *async.Future[any] {
	return async.Run(ctx, func(ctx context.Context) (any, error) {
		if b.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return b.query(ctx, q)
	})
}

// Await dispatches q and blocks until a result of type R is available.
func Await[R any](ctx context.Context, b *Bus, q any) (R, error) {
	var zero R

	result, err := b.Query(ctx, q).Await()
	if err != nil {
		return zero, err
	}

	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("query %s: handler returned %T, caller expects %T",
			getQueryNameFromInstance(q), result, zero)
	}
	return typed, nil
}

// query runs the pipeline stages strictly in order. Queries run the
// handler at most once: no retry, no per-attempt timeout.
func (b *Bus) query(ctx context.Context, q any) (any, error) {
	name := getQueryNameFromInstance(q)
	ec, _ := execution.FromContext(ctx)
	start := time.Now()

	b.recorder.Inc(ctx, metrics.QueryProcessed, name)

	if res := b.authorizer.Authorize(ctx, q, ec); !res.Allowed {
		b.recorder.Inc(ctx, metrics.QueryFailure, name)
		return nil, res.Err()
	}

	reg, err := b.registry.Resolve(name)
	if err != nil {
		b.recorder.Inc(ctx, metrics.QueryFailure, name)
		return nil, err
	}

	if ec.CorrelationID != "" {
		ctx = execution.WithCorrelationID(ctx, ec.CorrelationID)
	}

	key, cacheable := b.cacheKeyFor(ctx, name, q, reg.Config)

	if cacheable {
		value, ok, err := b.cache.Get(ctx, key)
		switch {
		case err != nil:
			// Provider failure degrades to a miss, never fails the call.
			b.logger.WarnContext(ctx, "cache read failed, treating as miss",
				logger.Query(name),
				logger.CacheKey(key),
				logger.Error(err))
		case ok:
			b.recorder.Inc(ctx, metrics.CacheHit, name)
			b.recorder.Inc(ctx, metrics.QuerySuccess, name)
			b.recorder.Observe(ctx, metrics.QueryDuration, name, time.Since(start))
			return value, nil
		}
	}

	ctx = withEnvelope(ctx, newEnvelope(q, name, ec))

	handler := chainMiddleware(reg.Handler, b.middleware)
	result, err := safeHandle(handler, ctx, q)
	if err != nil {
		b.recorder.Inc(ctx, metrics.QueryFailure, name)
		b.logger.ErrorContext(ctx, "query failed",
			logger.Query(name),
			logger.Error(err))
		return nil, err
	}

	if cacheable {
		b.recorder.Inc(ctx, metrics.CacheMiss, name)
		if !isNil(result) {
			ttl := reg.Config.TTL
			if ttl <= 0 {
				ttl = b.defaultTTL
			}
			if err := b.cache.PutTTL(ctx, key, result, ttl); err != nil {
				b.logger.WarnContext(ctx, "cache write failed",
					logger.Query(name),
					logger.CacheKey(key),
					logger.Error(err))
			}
		}
	}

	b.recorder.Inc(ctx, metrics.QuerySuccess, name)
	b.recorder.Observe(ctx, metrics.QueryDuration, name, time.Since(start))
	return result, nil
}

// CommandCompleted evicts cache entries of every registration declaring
// the completed command as an evictor. The engine plugs this into the
// command bus's success hooks; eviction is best-effort and never surfaces
// failures.
func (b *Bus) CommandCompleted(ctx context.Context, cmdName string, cmd any) {
	if b.cache == nil || !b.cachingEnabled {
		return
	}

	for name, reg := range b.registry.evictors(cmdName) {
		for _, rule := range reg.Config.EvictOn {
			if rule.Command != cmdName {
				continue
			}

			key, err := evictionKey(name, reg.Config, rule, cmd)
			if err != nil {
				b.logger.WarnContext(ctx, "cache eviction skipped",
					logger.Query(name),
					logger.Command(cmdName),
					logger.Error(err))
				continue
			}

			evicted, err := b.cache.Evict(ctx, key)
			if err != nil {
				b.logger.WarnContext(ctx, "cache eviction failed",
					logger.Query(name),
					logger.CacheKey(key),
					logger.Error(err))
				continue
			}
			if evicted {
				b.recorder.Inc(ctx, metrics.CacheEviction, name)
				b.logger.DebugContext(ctx, "cache entry evicted",
					logger.Query(name),
					logger.CacheKey(key),
					logger.Command(cmdName))
			}
		}
	}
}

// cacheKeyFor resolves the effective cache key, reporting whether caching
// applies to this call.
func (b *Bus) cacheKeyFor(ctx context.Context, name string, q any, cfg Config) (string, bool) {
	if b.cache == nil || !b.cachingEnabled || cfg.CacheDisabled {
		return "", false
	}
	if c, ok := q.(Cacheable); ok && !c.Cacheable() {
		return "", false
	}

	key, err := cacheKey(name, q, cfg)
	if err != nil {
		b.logger.WarnContext(ctx, "cache key derivation failed, caching disabled for call",
			logger.Query(name),
			logger.Error(err))
		return "", false
	}
	return key, true
}

// isNil reports whether a handler result is nil, including typed nil
// pointers. Nil results are never cached.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
