// Package command provides the write side of the dispatch engine: a typed
// command bus that routes each command to exactly one registered handler
// through a fixed pipeline of validation, authorization, and execution with
// per-attempt timeout and bounded retry.
//
// Commands represent intent, like Transfer or CloseAccount. Each
// command type maps to exactly one handler, registered during startup
// assembly; the registry is frozen before the first dispatch and resolved
// lock-free afterwards.
//
// # Quick Start
//
//	type Transfer struct {
//	    AccountID string
//	    Amount    int64
//	}
//
//	func transferHandler(ctx context.Context, cmd Transfer) (Receipt, error) {
//	    return ledger.Apply(ctx, cmd.AccountID, cmd.Amount)
//	}
//
//	registry := command.NewRegistry()
//	registry.Register(command.NewHandlerFunc(transferHandler))
//	registry.Freeze()
//
//	bus := command.NewBus(registry)
//	receipt, err := bus.Send(ctx, Transfer{AccountID: "A1", Amount: 100}).Await()
//
// # Pipeline
//
// Send runs validate → authorize → resolve → execute for every command, in
// that order, each stage starting only after the previous one passed.
// Validation and authorization failures are terminal and typed
// (*validation.Error, *authz.Error) so callers can match on kind. Handler
// failures are classified: timeouts and transient faults are retried up to
// the registration's MaxRetries with a fixed backoff delay; everything else
// fails immediately. Exhausted retries fail with *RetryExhaustedError
// wrapping the final cause.
//
// Send returns a cancellable future; cancelling it stops an in-flight
// handler through context cancellation and prevents any pending retry from
// starting.
//
// # Per-command policy
//
//	registry.Register(
//	    command.NewHandlerFunc(transferHandler),
//	    command.WithTimeout(10*time.Second),
//	    command.WithMaxRetries(5),
//	    command.WithBackoff(200*time.Millisecond),
//	)
//
// # Middleware
//
// Middleware wraps handler execution (inside the retry loop, so each
// attempt passes through it) and must be configured at construction time:
//
//	bus := command.NewBus(registry,
//	    command.WithMiddleware(command.LoggingMiddleware(logger)),
//	)
package command
