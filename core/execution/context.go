package execution

import "context"

// Context holds the ambient data of a single dispatch call.
// The zero value is a valid anonymous context: no identity, no tenant,
// no flags.
type Context struct {
	UserID        string
	TenantID      string
	SessionID     string
	CorrelationID string

	// Roles and Scopes describe the caller's granted permissions and are
	// consumed by declarative authorization rules.
	Roles  []string
	Scopes []string

	// Features maps feature-flag names to their enabled state for this call.
	Features map[string]bool
}

// FeatureEnabled reports whether the named feature flag is enabled.
// Unknown flags are disabled.
func (c Context) FeatureEnabled(name string) bool {
	return c.Features[name]
}

// HasRole reports whether the caller holds the given role.
func (c Context) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasScope reports whether the caller holds the given scope.
func (c Context) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Unexported context key types prevent collisions with other packages.
type executionCtxKey struct{}
type correlationIDCtxKey struct{}

// WithContext returns a new context carrying the execution context.
func WithContext(ctx context.Context, ec Context) context.Context {
	return context.WithValue(ctx, executionCtxKey{}, ec)
}

// FromContext retrieves the execution context from ctx.
// Returns the zero Context and false if none is attached.
func FromContext(ctx context.Context) (Context, bool) {
	ec, ok := ctx.Value(executionCtxKey{}).(Context)
	return ec, ok
}

// WithCorrelationID returns a new context carrying the correlation ID.
// Buses attach it before invoking handlers so downstream calls can
// propagate it into logs and outgoing requests.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDCtxKey{}, id)
}

// CorrelationID extracts the correlation ID from the context.
// Falls back to the attached execution context, then to empty string.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDCtxKey{}).(string); ok && id != "" {
		return id
	}
	if ec, ok := FromContext(ctx); ok {
		return ec.CorrelationID
	}
	return ""
}
