package async

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned when AwaitWithTimeout exceeds its duration.
	ErrTimeout = errors.New("async: await timed out")
)

// Future represents the result of an asynchronous computation producing a
// value of type T. A Future is created by Run or Resolved and completes
// exactly once.
type Future[T any] struct {
	value  T
	err    error
	done   chan struct{}
	cancel context.CancelFunc
}

// Run executes fn in a new goroutine and returns a Future for its result.
// The function receives a context derived from ctx; cancelling the parent
// context or calling Cancel on the returned future cancels it.
func Run[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(f.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.value = zero
				f.err = fmt.Errorf("async: computation panicked: %v", r)
			}
		}()

		// Early exit prevents goroutine leak when context is pre-canceled
		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.value, f.err = fn(ctx)
	}()

	return f
}

// Resolved returns an already-completed future holding the given value and
// error. Useful for short-circuiting without spawning a goroutine.
func Resolved[T any](value T, err error) *Future[T] {
	f := &Future[T]{value: value, err: err, done: make(chan struct{}), cancel: func() {}}
	close(f.done)
	return f
}

// Await blocks until the computation completes and returns its result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.value, f.err
}

// AwaitWithTimeout waits for completion up to the given duration.
// Returns ErrTimeout if the computation is still running when it elapses;
// the future stays valid and can be awaited again.
func (f *Future[T]) AwaitWithTimeout(timeout time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-time.After(timeout):
		var zero T
		return zero, ErrTimeout
	}
}

// AwaitContext waits for completion or until ctx is done, whichever happens
// first. The computation itself is not cancelled when ctx expires.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Cancel cancels the context passed to the computation. In-flight work that
// honours context cancellation stops; completed futures are unaffected.
func (f *Future[T]) Cancel() {
	f.cancel()
}
