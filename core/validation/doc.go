// Package validation implements the validation stage of the dispatch
// pipeline: schema-level field checks followed by a request's optional
// custom-validation hook.
//
// Schema checks are delegated to a pluggable SchemaValidator. When no
// validator is configured, the schema check is a no-op. A request opts into
// custom validation by implementing the Validatable capability:
//
//	type Transfer struct {
//	    From   string
//	    To     string
//	    Amount int64
//	}
//
//	func (t Transfer) Validate(ctx context.Context) validation.Result {
//	    if t.From == t.To {
//	        return validation.Failure("to", "must differ from source account")
//	    }
//	    return validation.Success()
//	}
//
// A request with no declared constraints and no hook always passes. Schema
// failures short-circuit: the custom hook never runs when field checks fail.
package validation
