package command

import (
	"context"
	"fmt"
)

// Handler processes exactly one command type and returns its result.
type Handler interface {
	// Name returns the unique command name this handler processes.
	Name() string

	// Handle executes the handler with the given command payload.
	Handle(ctx context.Context, payload any) (any, error)
}

// HandlerFunc is a type-safe handler for commands of type C producing
// results of type R. The command name is derived from C, and the result
// type is fixed at registration: a handler registered for C always returns
// R (or an error).
type HandlerFunc[C any, R any] struct {
	name string
	fn   func(context.Context, C) (R, error)
}

// NewHandlerFunc creates a type-safe command handler. The command name is
// derived from the type C.
//
//	handler := command.NewHandlerFunc(func(ctx context.Context, cmd Transfer) (Receipt, error) {
//	    return ledger.Apply(ctx, cmd)
//	})
func NewHandlerFunc[C any, R any](fn func(context.Context, C) (R, error)) Handler {
	var zero C
	return &HandlerFunc[C, R]{
		name: getCommandNameFromInstance(zero),
		fn:   fn,
	}
}

// Name returns the command name this handler processes.
func (h *HandlerFunc[C, R]) Name() string {
	return h.name
}

// Handle executes the handler. The payload must be of type C.
func (h *HandlerFunc[C, R]) Handle(ctx context.Context, payload any) (any, error) {
	cmd, ok := payload.(C)
	if !ok {
		return nil, fmt.Errorf("command %s: invalid payload type %T", h.name, payload)
	}
	return h.fn(ctx, cmd)
}
