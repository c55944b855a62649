// Package async provides a minimal future abstraction for deferred,
// cancellable computations.
//
// A Future[T] represents the eventual result of a function running in its own
// goroutine. Callers compose futures without blocking a thread while waiting:
//
//	f := async.Run(ctx, func(ctx context.Context) (int, error) {
//	    return slowComputation(ctx)
//	})
//
//	// ... do other work ...
//
//	result, err := f.Await()
//
// Awaiting supports deadlines and caller contexts:
//
//	result, err := f.AwaitWithTimeout(5 * time.Second)
//	if errors.Is(err, async.ErrTimeout) {
//	    // computation still running; future remains awaitable
//	}
//
// Cancel abandons the computation by cancelling the context passed to the
// function. The function decides how promptly to honour it:
//
//	f.Cancel()
//	_, err := f.Await() // typically context.Canceled
package async
