package command

import "context"

type envelopeCtxKey struct{}

// withEnvelope attaches the dispatch envelope to the context before the
// handler is invoked.
func withEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, envelopeCtxKey{}, env)
}

// EnvelopeFromContext extracts the dispatch envelope from the context.
// Returns the zero Envelope and false outside a dispatch.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(envelopeCtxKey{}).(Envelope)
	return env, ok
}

type attemptCtxKey struct{}

// withAttempt records the current attempt number, starting at 1.
func withAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptCtxKey{}, attempt)
}

// AttemptFromContext returns the 1-based attempt number of the current
// handler invocation. Returns 0 outside a dispatch.
func AttemptFromContext(ctx context.Context) int {
	if n, ok := ctx.Value(attemptCtxKey{}).(int); ok {
		return n
	}
	return 0
}
