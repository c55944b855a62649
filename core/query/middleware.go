package query

import (
	"context"
	"log/slog"
	"time"

	corelogger "github.com/praxislabs/cqrs/core/logger"
)

// Middleware wraps a Handler to add cross-cutting functionality around
// handler execution. It runs only on cache misses, since a cache hit
// returns before the handler chain. Must be configured at bus
// construction time.
type Middleware func(next Handler) Handler

// middlewareHandler wraps a Handler with middleware functionality.
type middlewareHandler struct {
	name string
	next Handler
	fn   func(ctx context.Context, payload any) (any, error)
}

func (h *middlewareHandler) Name() string {
	return h.name
}

func (h *middlewareHandler) Handle(ctx context.Context, payload any) (any, error) {
	return h.fn(ctx, payload)
}

// LoggingMiddleware returns a middleware that logs handler execution with
// the query name, duration, and error.
func LoggingMiddleware(log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return &middlewareHandler{
			name: next.Name(),
			next: next,
			fn: func(ctx context.Context, payload any) (any, error) {
				start := time.Now()
				queryName := next.Name()

				result, err := next.Handle(ctx, payload)
				duration := time.Since(start)

				if err != nil {
					log.ErrorContext(ctx, "query failed",
						corelogger.Query(queryName),
						corelogger.Duration(duration),
						corelogger.Error(err))
					return nil, err
				}

				log.DebugContext(ctx, "query completed",
					corelogger.Query(queryName),
					corelogger.Duration(duration))

				return result, nil
			},
		}
	}
}
