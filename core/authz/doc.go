// Package authz implements the authorization stage of the dispatch pipeline.
//
// Three checks run in order, each optional:
//
//  1. Declarative rules attached to the request type via the RuleSet
//     capability (roles, scopes, ownership), evaluated against the call's
//     execution context.
//  2. A pluggable Authorizer backend, if configured.
//  3. The request's custom Authorize hook via the Authorizable capability.
//
// The overall result is allowed only when every present check allows the
// call. When nothing is declared and no hook exists, the stage passes
// implicitly: no authorization required. With fail-fast enabled (the
// default) the first denial short-circuits the remaining checks.
//
//	type Transfer struct {
//	    AccountID string
//	    Amount    int64
//	}
//
//	func (t Transfer) AuthorizationRules() authz.Rules {
//	    return authz.Rules{Scopes: []string{"accounts:write"}, OwnerField: "AccountID"}
//	}
package authz
