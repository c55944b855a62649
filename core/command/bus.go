package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/praxislabs/cqrs/core/authz"
	"github.com/praxislabs/cqrs/core/execution"
	"github.com/praxislabs/cqrs/core/logger"
	"github.com/praxislabs/cqrs/core/metrics"
	"github.com/praxislabs/cqrs/core/validation"
	"github.com/praxislabs/cqrs/pkg/async"
)

// SuccessHook is invoked after a command completes successfully. Hooks run
// in their own goroutine, off the command's latency path; the query bus
// uses them to drive declarative cache invalidation.
type SuccessHook func(ctx context.Context, name string, cmd any)

// Bus routes commands through the validate → authorize → execute pipeline.
//
// Example:
//
//	bus := command.NewBus(registry,
//	    command.WithLogger(logger),
//	    command.WithRecorder(recorder),
//	)
//	result, err := bus.Send(ctx, Transfer{AccountID: "A1", Amount: 100}).Await()
type Bus struct {
	registry   *Registry
	validator  *validation.Stage
	authorizer *authz.Stage
	recorder   metrics.Recorder
	logger     *slog.Logger
	middleware []Middleware
	onSuccess  []SuccessHook
	defaults   Config
	hooks      sync.WaitGroup
}

// Option configures a Bus.
type Option func(*Bus)

// WithValidator sets the validation stage. Defaults to a stage without a
// schema validator.
func WithValidator(v *validation.Stage) Option {
	return func(b *Bus) {
		b.validator = v
	}
}

// WithAuthorizer sets the authorization stage. Defaults to an enabled
// stage without a backend.
func WithAuthorizer(a *authz.Stage) Option {
	return func(b *Bus) {
		b.authorizer = a
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

// WithDefaults overrides the bus-level execution policy applied to
// registrations that leave Config fields at their zero values.
func WithDefaults(cfg Config) Option {
	return func(b *Bus) {
		if cfg.Timeout > 0 {
			b.defaults.Timeout = cfg.Timeout
		}
		if cfg.MaxRetries != 0 {
			b.defaults.MaxRetries = cfg.MaxRetries
		}
		if cfg.Backoff > 0 {
			b.defaults.Backoff = cfg.Backoff
		}
	}
}

// WithSuccessHook registers hooks invoked after successful commands.
func WithSuccessHook(hooks ...SuccessHook) Option {
	return func(b *Bus) {
		b.onSuccess = append(b.onSuccess, hooks...)
	}
}

// NewBus creates a command bus over the given registry.
func NewBus(registry *Registry, opts ...Option) *Bus {
	b := &Bus{
		registry:   registry,
		validator:  validation.NewStage(),
		authorizer: authz.NewStage(),
		recorder:   metrics.Noop{},
		logger:     slog.Default(),
		defaults: Config{
			Timeout:    DefaultTimeout,
			MaxRetries: DefaultMaxRetries,
			Backoff:    DefaultBackoff,
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// OnSuccess registers a hook invoked after a command completes
// successfully. Must be called before the first dispatch.
func (b *Bus) OnSuccess(hook SuccessHook) {
	b.onSuccess = append(b.onSuccess, hook)
}

// Send dispatches a command through the pipeline and returns a cancellable
// future for its result. Cancelling the future stops an in-flight handler
// via context cancellation and prevents any pending retry from starting.
func (b *Bus) Send(ctx context.Context, cmd any) *async.Future[any] {
	return async.Run(ctx, func(ctx context.Context) (any, error) {
		return b.send(ctx, cmd)
	})
}

// Await dispatches cmd and blocks until a result of type R is available.
// A result of a different runtime type is a registration defect.
func Await[R any](ctx context.Context, b *Bus, cmd any) (R, error) {
	var zero R

	result, err := b.Send(ctx, cmd).Await()
	if err != nil {
		return zero, err
	}

	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("command %s: handler returned %T, caller expects %T",
			getCommandNameFromInstance(cmd), result, zero)
	}
	return typed, nil
}

// Stop waits for in-flight success hooks to finish. Dispatching is
// unaffected; call during shutdown to flush pending cache invalidations.
func (b *Bus) Stop() {
	b.hooks.Wait()
}

// send runs the pipeline stages strictly in order; no stage starts before
// the previous one completed successfully.
func (b *Bus) send(ctx context.Context, cmd any) (any, error) {
	name := getCommandNameFromInstance(cmd)
	ec, _ := execution.FromContext(ctx)
	start := time.Now()

	b.recorder.Inc(ctx, metrics.CommandProcessed, name)

	if res := b.validator.Validate(ctx, cmd); !res.Valid() {
		b.recorder.Inc(ctx, metrics.CommandFailure, name)
		return nil, res.Err()
	}

	if res := b.authorizer.Authorize(ctx, cmd, ec); !res.Allowed {
		b.recorder.Inc(ctx, metrics.CommandFailure, name)
		return nil, res.Err()
	}

	reg, err := b.registry.Resolve(name)
	if err != nil {
		b.recorder.Inc(ctx, metrics.CommandFailure, name)
		return nil, err
	}

	timeout, maxRetries, backoff := b.policy(reg.Config)
	handler := chainMiddleware(reg.Handler, b.middleware)

	env := newEnvelope(cmd, name, ec)
	ctx = withEnvelope(ctx, env)
	if env.CorrelationID != "" {
		ctx = execution.WithCorrelationID(ctx, env.CorrelationID)
	}

	var lastErr error
	attempts := 0

loop:
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if attempt > maxRetries {
				break
			}
			b.recorder.Inc(ctx, metrics.CommandRetry, name)
			b.logger.WarnContext(ctx, "retrying command",
				logger.Command(name),
				logger.Attempt(attempt+1),
				logger.Error(lastErr))

			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break loop
			case <-time.After(backoff):
			}
		}

		attempts++
		result, err := b.execute(withAttempt(ctx, attempts), handler, cmd, timeout, name)
		if err == nil {
			b.recorder.Inc(ctx, metrics.CommandSuccess, name)
			b.recorder.Observe(ctx, metrics.CommandDuration, name, time.Since(start))
			b.notifySuccess(ctx, name, cmd)
			return result, nil
		}

		lastErr = err
		if !retryable(err) {
			break
		}
	}

	b.recorder.Inc(ctx, metrics.CommandFailure, name)
	b.logger.ErrorContext(ctx, "command failed",
		logger.Command(name),
		slog.Int("attempts", attempts),
		logger.Error(lastErr))

	// A failure caused by the caller's context ending is returned plain:
	// the dispatch did not run out of retries, the caller ran out of time.
	if ctx.Err() != nil && errors.Is(lastErr, ctx.Err()) {
		return nil, lastErr
	}

	if retryable(lastErr) {
		return nil, &RetryExhaustedError{Command: name, Attempts: attempts, Cause: lastErr}
	}
	return nil, lastErr
}

// execute runs a single handler attempt under the per-attempt timeout.
func (b *Bus) execute(parent context.Context, handler Handler, cmd any, timeout time.Duration, name string) (any, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}

	// Buffered so an abandoned attempt's goroutine can still exit.
	done := make(chan outcome, 1)
	go func() {
		result, err := safeHandle(handler, ctx, cmd)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		// The caller's own deadline or cancellation is not an attempt
		// timeout; surface it as-is so it is never retried or relabeled.
		if parent.Err() != nil {
			return nil, parent.Err()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Command: name, Timeout: timeout}
		}
		return nil, ctx.Err()
	}
}

// policy resolves the effective execution policy for a registration.
func (b *Bus) policy(cfg Config) (timeout time.Duration, maxRetries int, backoff time.Duration) {
	timeout = cfg.Timeout
	if timeout <= 0 {
		timeout = b.defaults.Timeout
	}

	switch {
	case cfg.MaxRetries == NoRetries:
		maxRetries = 0
	case cfg.MaxRetries > 0:
		maxRetries = cfg.MaxRetries
	case b.defaults.MaxRetries == NoRetries:
		maxRetries = 0
	default:
		maxRetries = b.defaults.MaxRetries
	}

	backoff = cfg.Backoff
	if backoff <= 0 {
		backoff = b.defaults.Backoff
	}
	return timeout, maxRetries, backoff
}

// notifySuccess fires success hooks off the command path. The hook context
// survives the caller's cancellation but keeps its values, so correlation
// IDs still flow into eviction logs.
func (b *Bus) notifySuccess(ctx context.Context, name string, cmd any) {
	if len(b.onSuccess) == 0 {
		return
	}

	hooks := b.onSuccess
	hctx := context.WithoutCancel(ctx)

	b.hooks.Add(1)
	go func() {
		defer b.hooks.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("command success hook panicked",
					logger.Command(name),
					slog.Any("panic", r),
					logger.Stack())
			}
		}()

		for _, hook := range hooks {
			hook(hctx, name, cmd)
		}
	}()
}
