package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/upb/estimate-api/session"
)

// Context key type to avoid collisions
type contextKey string

// IdentityKey is the context key for the authorized identity
const IdentityKey contextKey = "identity"

// GetRequestIDFromContext returns the id assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetIdentityFromContext retrieves the authorized identity from context
func GetIdentityFromContext(ctx context.Context) *session.Identity {
	if val := ctx.Value(IdentityKey); val != nil {
		if ident, ok := val.(*session.Identity); ok {
			return ident
		}
	}
	return nil
}

// WithIdentity adds the authorized identity to the context
func WithIdentity(ctx context.Context, ident *session.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, ident)
}
