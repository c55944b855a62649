package validation

import (
	"context"
	"fmt"
	"strings"
)

// Violation is a single field-level constraint failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of validating a request. The zero value is a
// success. Violations keep the order in which they were reported.
type Result struct {
	Violations []Violation
}

// Success returns a passing result.
func Success() Result {
	return Result{}
}

// Failure returns a failing result with a single violation.
func Failure(field, message string) Result {
	return Result{Violations: []Violation{{Field: field, Message: message}}}
}

// Valid reports whether the request passed validation.
func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

// Merge appends the violations of other, preserving order.
func (r Result) Merge(other Result) Result {
	if other.Valid() {
		return r
	}
	return Result{Violations: append(r.Violations, other.Violations...)}
}

// Err converts a failing result into an *Error. Returns nil for a
// passing result.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &Error{Violations: r.Violations}
}

// Error is the typed failure reported when a request fails validation.
// It is terminal: the pipeline never retries validation failures.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// SchemaValidator performs field-level checks against a request's declared
// constraints. Implementations are pluggable; a nil validator disables
// schema checks.
type SchemaValidator interface {
	// Validate returns the field violations found in req, or an empty
	// slice when the request satisfies its schema.
	Validate(ctx context.Context, req any) []Violation
}

// Validatable is the capability a request implements to run handler-independent
// custom checks after its schema passes. Absence of the capability is an
// automatic pass.
type Validatable interface {
	Validate(ctx context.Context) Result
}

// Stage runs schema checks then the request's custom-validation hook.
type Stage struct {
	schema SchemaValidator
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithSchemaValidator sets the pluggable schema validator.
// Without it, schema checks pass unconditionally.
func WithSchemaValidator(v SchemaValidator) StageOption {
	return func(s *Stage) {
		s.schema = v
	}
}

// NewStage creates a validation stage.
func NewStage(opts ...StageOption) *Stage {
	s := &Stage{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate runs schema checks first; any schema violation short-circuits
// and the custom hook is skipped. Otherwise the hook result is merged in.
func (s *Stage) Validate(ctx context.Context, req any) Result {
	if s.schema != nil {
		if violations := s.schema.Validate(ctx, req); len(violations) > 0 {
			return Result{Violations: violations}
		}
	}

	if v, ok := req.(Validatable); ok {
		return Success().Merge(v.Validate(ctx))
	}

	return Success()
}
