package query

import "context"

type envelopeCtxKey struct{}

// withEnvelope attaches the dispatch envelope to the context before the
// handler is invoked.
func withEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, envelopeCtxKey{}, env)
}

// EnvelopeFromContext extracts the dispatch envelope from the context.
// Returns the zero Envelope and false outside a handler invocation.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(envelopeCtxKey{}).(Envelope)
	return env, ok
}
