package authz

import (
	"context"
	"fmt"
	"reflect"

	"github.com/praxislabs/cqrs/core/execution"
)

// Result is the outcome of an authorization check.
type Result struct {
	Allowed bool
	Reason  string
}

// Allow returns a passing result.
func Allow() Result {
	return Result{Allowed: true}
}

// Deny returns a failing result with a reason.
func Deny(reason string) Result {
	return Result{Reason: reason}
}

// Err converts a denial into an *Error. Returns nil when allowed.
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return &Error{Reason: r.Reason}
}

// Error is the typed failure reported when a request is denied.
// It is terminal: the pipeline never retries authorization failures.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return "authorization denied"
	}
	return "authorization denied: " + e.Reason
}

// Authorizer is the pluggable backend contract. Given a request and the
// call's execution context it decides whether the call may proceed.
// A nil backend disables the check.
type Authorizer interface {
	Authorize(ctx context.Context, req any, ec execution.Context) Result
}

// AuthorizerFunc adapts a plain function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, req any, ec execution.Context) Result

func (f AuthorizerFunc) Authorize(ctx context.Context, req any, ec execution.Context) Result {
	return f(ctx, req, ec)
}

// Authorizable is the capability a request implements to run a custom
// authorization hook. Absence of the capability is an automatic pass.
type Authorizable interface {
	Authorize(ctx context.Context, ec execution.Context) Result
}

// RuleSet is the capability a request type implements to declare built-in
// role, scope, and ownership requirements.
type RuleSet interface {
	AuthorizationRules() Rules
}

// Rules declares built-in authorization requirements for a request type.
// The zero value declares nothing and always passes.
type Rules struct {
	// Roles the caller must hold at least one of.
	Roles []string

	// Scopes the caller must hold all of.
	Scopes []string

	// OwnerField names a request field whose value must equal the
	// caller's user ID.
	OwnerField string

	// TenantField names a request field whose value must equal the
	// caller's tenant ID.
	TenantField string
}

// Empty reports whether no requirement is declared.
func (r Rules) Empty() bool {
	return len(r.Roles) == 0 && len(r.Scopes) == 0 && r.OwnerField == "" && r.TenantField == ""
}

// Evaluate checks the declared requirements against the execution context.
func (r Rules) Evaluate(req any, ec execution.Context) Result {
	if len(r.Roles) > 0 {
		allowed := false
		for _, role := range r.Roles {
			if ec.HasRole(role) {
				allowed = true
				break
			}
		}
		if !allowed {
			return Deny(fmt.Sprintf("missing required role (one of %v)", r.Roles))
		}
	}

	for _, scope := range r.Scopes {
		if !ec.HasScope(scope) {
			return Deny("missing required scope " + scope)
		}
	}

	if r.OwnerField != "" {
		value, ok := fieldString(req, r.OwnerField)
		if !ok {
			return Deny("ownership field " + r.OwnerField + " not found on request")
		}
		if value != ec.UserID {
			return Deny("caller is not the owner of the target resource")
		}
	}

	if r.TenantField != "" {
		value, ok := fieldString(req, r.TenantField)
		if !ok {
			return Deny("tenant field " + r.TenantField + " not found on request")
		}
		if value != ec.TenantID {
			return Deny("request targets a different tenant")
		}
	}

	return Allow()
}

// fieldString reads a request struct field as a string.
func fieldString(req any, field string) (string, bool) {
	rv := reflect.ValueOf(req)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	fv := rv.FieldByName(field)
	if !fv.IsValid() || !fv.CanInterface() {
		return "", false
	}
	return fmt.Sprintf("%v", fv.Interface()), true
}
