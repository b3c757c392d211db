// Package auth resolves and gates the request-scoped caller identity.
package auth

import (
	"context"

	"github.com/orgbase/orgbase/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// identityKey is the context key for storing the resolved Identity.
	identityKey contextKey = "identity"
)

// ContextWithIdentity adds the resolved Identity to the context.
func ContextWithIdentity(ctx context.Context, ident *model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFromContext retrieves the Identity from the context.
// Returns nil if no caller has been resolved for this request.
func IdentityFromContext(ctx context.Context) *model.Identity {
	ident, ok := ctx.Value(identityKey).(*model.Identity)
	if !ok {
		return nil
	}
	return ident
}

// CompanyIDFromContext is a convenience function to get the caller's
// company ID. Returns empty string if not authenticated.
func CompanyIDFromContext(ctx context.Context) string {
	ident := IdentityFromContext(ctx)
	if ident == nil {
		return ""
	}
	return ident.CompanyID
}
