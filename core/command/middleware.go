package command

import (
	"context"
	"log/slog"
	"time"

	corelogger "github.com/praxislabs/cqrs/core/logger"
)

// Middleware wraps a Handler to add cross-cutting functionality around
// handler execution. Middleware sits inside the retry loop: every attempt
// passes through it. It must be configured at bus construction time.
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

// LoggingMiddleware returns a middleware that logs each handler attempt
// with its command name, attempt number, duration, and error.
func LoggingMiddleware(log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return &middlewareHandler{
			name: next.Name(),
			next: next,
			fn: func(ctx context.Context, payload any) (any, error) {
				start := time.Now()
				cmdName := next.Name()

				log.InfoContext(ctx, "command started",
					corelogger.Command(cmdName),
					corelogger.Attempt(AttemptFromContext(ctx)))

				result, err := next.Handle(ctx, payload)
				duration := time.Since(start)

				if err != nil {
					log.ErrorContext(ctx, "command failed",
						corelogger.Command(cmdName),
						corelogger.Attempt(AttemptFromContext(ctx)),
						corelogger.Duration(duration),
						corelogger.Error(err))
					return nil, err
				}

				log.InfoContext(ctx, "command completed",
					corelogger.Command(cmdName),
					corelogger.Duration(duration))

				return result, nil
			},
		}
	}
}
