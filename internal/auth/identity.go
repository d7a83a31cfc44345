package auth

import (
	"context"
	"time"
)

// Identity is the caller as established by a verified token.
type Identity struct {
	Subject   string
	Email     string
	TokenUse  string
	ExpiresAt time.Time
	Claims    *Claims
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by RequireAuth.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
