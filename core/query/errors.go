package query

import "errors"

var (
	// ErrHandlerNotFound is returned when a query has no registered handler.
	ErrHandlerNotFound = errors.New("no handler registered for query")

	// ErrDuplicateHandler is returned when registering a second handler for a query type.
	ErrDuplicateHandler = errors.New("handler already registered for query")

	// ErrRegistryFrozen is returned when registering after startup assembly completed.
	ErrRegistryFrozen = errors.New("registry is frozen")
)
