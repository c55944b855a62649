package query

import (
	"context"
	"fmt"
)

// Handler processes exactly one query type and returns its result.
type Handler interface {
	// Name returns the unique query name this handler processes.
	Name() string

	// Handle executes the handler with the given query payload.
	Handle(ctx context.Context, payload any) (any, error)
}

// HandlerFunc is a type-safe handler for queries of type Q producing
// results of type R. The query name is derived from Q and the result type
// is fixed at registration.
type HandlerFunc[Q any, R any] struct {
	name string
	fn   func(context.Context, Q) (R, error)
}

// NewHandlerFunc creates a type-safe query handler. The query name is
// derived from the type Q.
func NewHandlerFunc[Q any, R any](fn func(context.Context, Q) (R, error)) Handler {
	var zero Q
	return &HandlerFunc[Q, R]{
		name: getQueryNameFromInstance(zero),
		fn:   fn,
	}
}

// Name returns the query name this handler processes.
func (h *HandlerFunc[Q, R]) Name() string {
	return h.name
}

// Handle executes the handler. The payload must be of type Q.
func (h *HandlerFunc[Q, R]) Handle(ctx context.Context, payload any) (any, error) {
	q, ok := payload.(Q)
	if !ok {
		return nil, fmt.Errorf("query %s: invalid payload type %T", h.name, payload)
	}
	return h.fn(ctx, q)
}
