package authz

import (
	"context"

	"github.com/praxislabs/cqrs/core/execution"
)

// Stage runs the built-in authorization checks followed by the request's
// custom hook.
type Stage struct {
	backend  Authorizer
	enabled  bool
	failFast bool
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithAuthorizer sets the pluggable authorization backend.
func WithAuthorizer(a Authorizer) StageOption {
	return func(s *Stage) {
		s.backend = a
	}
}

// WithEnabled toggles the whole stage. A disabled stage allows every call.
func WithEnabled(enabled bool) StageOption {
	return func(s *Stage) {
		s.enabled = enabled
	}
}

// WithFailFast controls whether the first denial short-circuits the
// remaining checks. Enabled by default.
func WithFailFast(failFast bool) StageOption {
	return func(s *Stage) {
		s.failFast = failFast
	}
}

// NewStage creates an authorization stage. By default the stage is enabled,
// fails fast, and has no backend.
func NewStage(opts ...StageOption) *Stage {
	s := &Stage{enabled: true, failFast: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize evaluates declared rules, the backend, and the custom hook in
// order. The call is allowed only if every present check allows it; the
// first denial's reason is reported.
func (s *Stage) Authorize(ctx context.Context, req any, ec execution.Context) Result {
	if !s.enabled {
		return Allow()
	}

	var denial *Result

	record := func(r Result) bool {
		if r.Allowed {
			return false
		}
		if denial == nil {
			denial = &r
		}
		return s.failFast
	}

	if rs, ok := req.(RuleSet); ok {
		if rules := rs.AuthorizationRules(); !rules.Empty() {
			if record(rules.Evaluate(req, ec)) {
				return *denial
			}
		}
	}

	if s.backend != nil {
		if record(s.backend.Authorize(ctx, req, ec)) {
			return *denial
		}
	}

	if a, ok := req.(Authorizable); ok {
		if record(a.Authorize(ctx, ec)) {
			return *denial
		}
	}

	if denial != nil {
		return *denial
	}
	return Allow()
}
