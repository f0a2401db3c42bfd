package middleware

import (
	"context"

	"github.com/google/uuid"
)

type identityKey struct{}

type requestIDKey struct{}

// Identity is the authenticated caller attached by Auth.
type Identity struct {
	UserID uuid.UUID
	Name   string
}

// WithIdentity attaches the caller to ctx. A nil user id leaves the request anonymous.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}

// UserIDFromContext returns the caller's id as a string, or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := IdentityFromContext(ctx); ok {
		return id.UserID.String()
	}
	return ""
}

// ActorFromContext returns the caller's id for audit columns. Anonymous requests yield nil.
func ActorFromContext(ctx context.Context) *uuid.UUID {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil
	}
	actor := id.UserID
	return &actor
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}
