// Package query provides the read side of the dispatch engine: a typed
// query bus that routes each query to exactly one registered handler through
// an authorize → cache-lookup → execute → cache-populate pipeline.
//
// Queries represent reads, like GetBalance or ListTransactions. They are
// cacheable
// by default: a hit returns the cached value without invoking the handler,
// a miss invokes the handler once (no retry or timeout wrapping; queries are
// expected to be fast, idempotent reads) and stores any non-nil result under
// a deterministic key.
//
// # Quick Start
//
//	type GetBalance struct {
//	    AccountID string
//	}
//
//	registry := query.NewRegistry()
//	registry.MustRegister(
//	    query.NewHandlerFunc(func(ctx context.Context, q GetBalance) (int64, error) {
//	        return ledger.Balance(ctx, q.AccountID)
//	    }),
//	    query.WithTTL(5*time.Minute),
//	    query.WithKeyFields("AccountID"),
//	)
//	registry.Freeze()
//
//	bus := query.NewBus(registry, query.WithCache(cache.NewMemory()))
//	balance, err := bus.Query(ctx, GetBalance{AccountID: "A1"}).Await()
//
// # Cache keys
//
// A query may supply an explicit key by implementing CacheKeyer; it is used
// verbatim. Otherwise the key is derived from the query's type name plus the
// configured key fields (all exported fields when none are configured), in a
// stable order, so equal queries always share a key.
//
// # Cross-invalidation
//
// A registration may declare commands whose success evicts its cache
// entries. The engine bridges the command bus's success hooks to
// CommandCompleted; eviction is best-effort, runs off the command's latency
// path, and matches keys by declared field equality, not patterns:
//
//	registry.MustRegister(
//	    query.NewHandlerFunc(getBalanceHandler),
//	    query.WithKeyFields("AccountID"),
//	    query.WithEvictOn(query.EvictionRule{Command: "Transfer"}),
//	)
//
// Cache-provider failures never fail a query: a failing read is a miss, a
// failing write is logged and swallowed.
package query
