package command

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrHandlerNotFound is returned when a command has no registered handler.
	ErrHandlerNotFound = errors.New("no handler registered for command")

	// ErrDuplicateHandler is returned when registering a second handler for a command type.
	ErrDuplicateHandler = errors.New("handler already registered for command")

	// ErrRegistryFrozen is returned when registering after startup assembly completed.
	ErrRegistryFrozen = errors.New("registry is frozen")
)

// TimeoutError reports a single handler attempt exceeding its per-attempt
// deadline. Timeouts are retryable.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %s: handler timed out after %s", e.Command, e.Timeout)
}

// Temporary marks the timeout as retryable.
func (e *TimeoutError) Temporary() bool { return true }

// RetryExhaustedError reports that every permitted attempt failed with a
// retryable fault. It wraps the final cause.
type RetryExhaustedError struct {
	Command  string
	Attempts int
	Cause    error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("command %s: failed after %d attempts: %v", e.Command, e.Attempts, e.Cause)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Cause }

// transientError marks a wrapped error as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

func (e *transientError) Temporary() bool { return true }

// Transient marks err as a transient infrastructure fault, making it
// retryable by the command pipeline. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// retryable classifies a handler failure. Timeouts and faults that declare
// themselves temporary are retried. Everything else is terminal, including
// validation- and authorization-class errors, which never reach the
// handler.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var tmp interface{ Temporary() bool }
	if errors.As(err, &tmp) && tmp.Temporary() {
		return true
	}
	return false
}
