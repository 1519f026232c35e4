package authz

import "context"

// principalCtxKey is the context key for the authenticated principal ID.
type principalCtxKey struct{}

// WithPrincipalID stores the authenticated principal's ID in the context.
func WithPrincipalID(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, principalID)
}

// PrincipalIDFromContext retrieves the principal ID set by WithPrincipalID.
func PrincipalIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalCtxKey{}).(string)
	return id, ok && id != ""
}
