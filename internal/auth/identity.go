package auth

import "context"

// Identity is the authenticated user attached to a request context.
// Handlers read it from the context instead of touching the session store.
type Identity struct {
	UserID   int64
	Username string
}

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the authenticated identity from the context.
// The second return value is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
