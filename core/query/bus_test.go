package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/cqrs/core/authz"
	"github.com/praxislabs/cqrs/core/cache"
	"github.com/praxislabs/cqrs/core/execution"
	"github.com/praxislabs/cqrs/core/metrics"
	"github.com/praxislabs/cqrs/core/query"
)

type balanceQuery struct {
	AccountID string
}

type deniedQuery struct{}

func (deniedQuery) Authorize(ctx context.Context, ec execution.Context) authz.Result {
	return authz.Deny("not allowed")
}

type uncachedQuery struct {
	AccountID string
}

func (uncachedQuery) Cacheable() bool { return false }

type transferCommand struct {
	SourceAccount string
	Amount        int64
}

type hiddenKeyQuery struct {
	accountID string
}

type panickyAuthQuery struct{}

func (panickyAuthQuery) Authorize(ctx context.Context, ec execution.Context) authz.Result {
	panic("authorization backend corrupted")
}

// recorderStub counts metric emissions by name.
type recorderStub struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecorderStub() *recorderStub {
	return &recorderStub{counts: make(map[string]int)}
}

func (r *recorderStub) Inc(ctx context.Context, name, requestType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name]++
}

func (r *recorderStub) Observe(ctx context.Context, name, requestType string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name]++
}

func (r *recorderStub) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// failingCache errors on every operation.
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) (any, bool, error) {
	return nil, false, cache.ErrUnavailable
}

func (failingCache) Put(ctx context.Context, key string, value any) error {
	return cache.ErrUnavailable
}

func (failingCache) PutTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return cache.ErrUnavailable
}

func (failingCache) Evict(ctx context.Context, key string) (bool, error) {
	return false, cache.ErrUnavailable
}

func (failingCache) Clear(ctx context.Context) error {
	return cache.ErrUnavailable
}

func TestBusQuery(t *testing.T) {
	t.Parallel()

	t.Run("cached query invokes handler once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			calls.Add(1)
			return 100, nil
		}))
		registry.Freeze()

		recorder := newRecorderStub()
		bus := query.NewBus(registry,
			query.WithCache(cache.NewMemory()),
			query.WithRecorder(recorder),
		)

		for range 3 {
			result, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
			require.NoError(t, err)
			assert.Equal(t, int64(100), result)
		}

		assert.Equal(t, int64(1), calls.Load())
		assert.Equal(t, 1, recorder.count(metrics.CacheMiss))
		assert.Equal(t, 2, recorder.count(metrics.CacheHit))
		assert.Equal(t, 3, recorder.count(metrics.QuerySuccess))
		assert.Equal(t, 3, recorder.count(metrics.QueryDuration))
	})

	t.Run("distinct keys cache separately", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (string, error) {
			calls.Add(1)
			return "balance:" + q.AccountID, nil
		}))
		registry.Freeze()

		bus := query.NewBus(registry, query.WithCache(cache.NewMemory()))

		first, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
		require.NoError(t, err)
		second, err := bus.Query(context.Background(), balanceQuery{AccountID: "A2"}).Await()
		require.NoError(t, err)

		assert.Equal(t, "balance:A1", first)
		assert.Equal(t, "balance:A2", second)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("registration without cache invokes handler every time", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			calls.Add(1)
			return 100, nil
		}), query.WithoutCache())
		registry.Freeze()

		recorder := newRecorderStub()
		bus := query.NewBus(registry,
			query.WithCache(cache.NewMemory()),
			query.WithRecorder(recorder),
		)

		for range 2 {
			_, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
			require.NoError(t, err)
		}

		assert.Equal(t, int64(2), calls.Load())
		assert.Zero(t, recorder.count(metrics.CacheHit))
		assert.Zero(t, recorder.count(metrics.CacheMiss))
	})

	t.Run("query instance can opt out of caching", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q uncachedQuery) (int64, error) {
			calls.Add(1)
			return 100, nil
		}))
		registry.Freeze()

		bus := query.NewBus(registry, query.WithCache(cache.NewMemory()))

		for range 2 {
			_, err := bus.Query(context.Background(), uncachedQuery{AccountID: "A1"}).Await()
			require.NoError(t, err)
		}

		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("caching disabled globally invokes handler every time", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			calls.Add(1)
			return 100, nil
		}))
		registry.Freeze()

		bus := query.NewBus(registry,
			query.WithCache(cache.NewMemory()),
			query.WithCachingEnabled(false),
		)

		for range 2 {
			_, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
			require.NoError(t, err)
		}

		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("nil result is never cached", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (*int64, error) {
			calls.Add(1)
			return nil, nil
		}))
		registry.Freeze()

		store := cache.NewMemory()
		bus := query.NewBus(registry, query.WithCache(store))

		for range 2 {
			_, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
			require.NoError(t, err)
		}

		assert.Equal(t, int64(2), calls.Load())
		assert.Zero(t, store.Len())
	})

	t.Run("cache failure degrades to miss", func(t *testing.T) {
		t.Parallel()

		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			return 100, nil
		}))
		registry.Freeze()

		recorder := newRecorderStub()
		bus := query.NewBus(registry,
			query.WithCache(failingCache{}),
			query.WithRecorder(recorder),
		)

		result, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
		require.NoError(t, err)
		assert.Equal(t, int64(100), result)
		assert.Equal(t, 1, recorder.count(metrics.QuerySuccess))
	})

	t.Run("authorization denial is terminal", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q deniedQuery) (int64, error) {
			calls.Add(1)
			return 100, nil
		}))
		registry.Freeze()

		recorder := newRecorderStub()
		bus := query.NewBus(registry, query.WithRecorder(recorder))

		_, err := bus.Query(context.Background(), deniedQuery{}).Await()

		var authzErr *authz.Error
		require.ErrorAs(t, err, &authzErr)
		assert.Zero(t, calls.Load())
		assert.Equal(t, 1, recorder.count(metrics.QueryFailure))
		assert.Zero(t, recorder.count(metrics.QuerySuccess))
	})

	t.Run("unregistered query fails", func(t *testing.T) {
		t.Parallel()

		registry := query.NewRegistry()
		registry.Freeze()

		bus := query.NewBus(registry)

		_, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
		require.ErrorIs(t, err, query.ErrHandlerNotFound)
	})

	t.Run("handler error propagates and is not cached", func(t *testing.T) {
		t.Parallel()

		handlerErr := errors.New("projection unavailable")
		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			calls.Add(1)
			return 0, handlerErr
		}))
		registry.Freeze()

		recorder := newRecorderStub()
		bus := query.NewBus(registry,
			query.WithCache(cache.NewMemory()),
			query.WithRecorder(recorder),
		)

		for range 2 {
			_, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
			require.ErrorIs(t, err, handlerErr)
		}

		assert.Equal(t, int64(2), calls.Load())
		assert.Equal(t, 2, recorder.count(metrics.QueryFailure))
	})

	t.Run("unexported key field degrades to uncached dispatch", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q hiddenKeyQuery) (int64, error) {
			calls.Add(1)
			return 100, nil
		}), query.WithKeyFields("accountID"))
		registry.Freeze()

		bus := query.NewBus(registry, query.WithCache(cache.NewMemory()))

		for range 2 {
			result, err := bus.Query(context.Background(), hiddenKeyQuery{accountID: "A1"}).Await()
			require.NoError(t, err)
			assert.Equal(t, int64(100), result)
		}

		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("panicking authorization hook becomes an error", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q panickyAuthQuery) (int64, error) {
			calls.Add(1)
			return 100, nil
		}))
		registry.Freeze()

		bus := query.NewBus(registry)

		_, err := bus.Query(context.Background(), panickyAuthQuery{}).Await()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
		assert.Zero(t, calls.Load())
	})

	t.Run("handler panic becomes an error", func(t *testing.T) {
		t.Parallel()

		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			panic("projection corrupted")
		}))
		registry.Freeze()

		bus := query.NewBus(registry)

		_, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "projection corrupted")
	})

	t.Run("handler sees the dispatch envelope", func(t *testing.T) {
		t.Parallel()

		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			env, ok := query.EnvelopeFromContext(ctx)
			require.True(t, ok)
			assert.Equal(t, "balanceQuery", env.Name)
			assert.NotEmpty(t, env.ID)
			assert.Equal(t, "corr-1", env.CorrelationID)
			assert.Equal(t, "user-1", env.Initiator)
			assert.Equal(t, "corr-1", execution.CorrelationID(ctx))
			return 100, nil
		}))
		registry.Freeze()

		bus := query.NewBus(registry)

		ctx := execution.WithContext(context.Background(), execution.Context{
			UserID:        "user-1",
			CorrelationID: "corr-1",
		})

		_, err := bus.Query(ctx, balanceQuery{AccountID: "A1"}).Await()
		require.NoError(t, err)
	})

	t.Run("timeout bounds the call", func(t *testing.T) {
		t.Parallel()

		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		}))
		registry.Freeze()

		bus := query.NewBus(registry, query.WithTimeout(20*time.Millisecond))

		_, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("middleware wraps cache misses only", func(t *testing.T) {
		t.Parallel()

		var wrapped atomic.Int64
		middleware := func(next query.Handler) query.Handler {
			return query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (any, error) {
				wrapped.Add(1)
				return next.Handle(ctx, q)
			})
		}

		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			return 100, nil
		}))
		registry.Freeze()

		bus := query.NewBus(registry,
			query.WithCache(cache.NewMemory()),
			query.WithMiddleware(middleware),
		)

		for range 2 {
			_, err := bus.Query(context.Background(), balanceQuery{AccountID: "A1"}).Await()
			require.NoError(t, err)
		}

		assert.Equal(t, int64(1), wrapped.Load())
	})
}

func TestBusCommandCompleted(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T, calls *atomic.Int64) (*query.Bus, *recorderStub) {
		t.Helper()

		registry := query.NewRegistry()
		registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
			calls.Add(1)
			return 100, nil
		}),
			query.WithKeyFields("AccountID"),
			query.WithEvictOn(query.EvictionRule{
				Command: "transferCommand",
				Fields:  map[string]string{"AccountID": "SourceAccount"},
			}),
		)
		registry.Freeze()

		recorder := newRecorderStub()
		return query.NewBus(registry,
			query.WithCache(cache.NewMemory()),
			query.WithRecorder(recorder),
		), recorder
	}

	t.Run("command success evicts matching entry", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		bus, recorder := setup(t, &calls)
		ctx := context.Background()

		_, err := bus.Query(ctx, balanceQuery{AccountID: "A1"}).Await()
		require.NoError(t, err)
		_, err = bus.Query(ctx, balanceQuery{AccountID: "A1"}).Await()
		require.NoError(t, err)
		require.Equal(t, int64(1), calls.Load())

		bus.CommandCompleted(ctx, "transferCommand", transferCommand{SourceAccount: "A1", Amount: 50})

		_, err = bus.Query(ctx, balanceQuery{AccountID: "A1"}).Await()
		require.NoError(t, err)
		assert.Equal(t, int64(2), calls.Load())
		assert.Equal(t, 1, recorder.count(metrics.CacheEviction))
	})

	t.Run("other keys stay cached", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		bus, _ := setup(t, &calls)
		ctx := context.Background()

		_, err := bus.Query(ctx, balanceQuery{AccountID: "A1"}).Await()
		require.NoError(t, err)
		_, err = bus.Query(ctx, balanceQuery{AccountID: "A2"}).Await()
		require.NoError(t, err)
		require.Equal(t, int64(2), calls.Load())

		bus.CommandCompleted(ctx, "transferCommand", transferCommand{SourceAccount: "A1"})

		_, err = bus.Query(ctx, balanceQuery{AccountID: "A2"}).Await()
		require.NoError(t, err)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("unrelated command evicts nothing", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		bus, recorder := setup(t, &calls)
		ctx := context.Background()

		_, err := bus.Query(ctx, balanceQuery{AccountID: "A1"}).Await()
		require.NoError(t, err)

		bus.CommandCompleted(ctx, "renameAccountCommand", struct{ AccountID string }{AccountID: "A1"})

		_, err = bus.Query(ctx, balanceQuery{AccountID: "A1"}).Await()
		require.NoError(t, err)
		assert.Equal(t, int64(1), calls.Load())
		assert.Zero(t, recorder.count(metrics.CacheEviction))
	})
}

func TestAwait(t *testing.T) {
	t.Parallel()

	registry := query.NewRegistry()
	registry.MustRegister(query.NewHandlerFunc(func(ctx context.Context, q balanceQuery) (int64, error) {
		return 100, nil
	}))
	registry.Freeze()

	bus := query.NewBus(registry)

	balance, err := query.Await[int64](context.Background(), bus, balanceQuery{AccountID: "A1"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	_, err = query.Await[string](context.Background(), bus, balanceQuery{AccountID: "A1"})
	require.Error(t, err)
}
