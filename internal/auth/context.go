package auth

import "context"

type contextKey struct{}

// WithIdentity returns a child context carrying the verified caller.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFromContext returns the caller attached by the access gate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || identity.ID == "" {
		return Identity{}, false
	}
	return identity, true
}
