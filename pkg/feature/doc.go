// Package feature resolves feature-flag values with scoped overrides.
//
// A flag is defined globally or per tenant; overrides pin its value for a
// specific user, role or tenant. Resolution walks a fixed precedence chain of
// user override, role override (highest hierarchy level first), tenant
// override, tenant flag, global flag, then caller default, and returns the
// first match. An unknown flag never raises; it simply resolves to the
// caller-supplied default.
//
// Resolution is pure given a snapshot of store state: it performs no
// mutation and is safe to call concurrently.
//
//	resolver := feature.NewResolver(store, roleExpander)
//
//	enabled, err := resolver.Resolve(ctx, "campaigns.chatbot", principalID, tenantID, false)
//	if err != nil {
//	    // infrastructure failure; err wraps the store error, enabled
//	    // carries the caller default so the caller can fail-closed
//	}
package feature
