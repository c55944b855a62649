// Package execution carries per-call ambient data through the dispatch
// pipeline: the caller's identity, tenant, session, correlation ID, and
// feature flags.
//
// An execution Context is attached to a context.Context at the call site and
// threaded explicitly through every pipeline stage. It is never stored in
// shared or global state, so concurrent calls cannot interfere:
//
//	ec := execution.Context{
//	    UserID:        "user-42",
//	    TenantID:      "acme",
//	    CorrelationID: uuid.New().String(),
//	    Features:      map[string]bool{"new-pricing": true},
//	}
//	ctx = execution.WithContext(ctx, ec)
//
//	result, err := bus.Send(ctx, cmd).Await()
package execution
