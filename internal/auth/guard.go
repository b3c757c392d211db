package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/orgbase/orgbase/internal/model"
)

// Guard errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

// RequireAuth returns the caller identity attached to the request context.
// Fails with ErrUnauthenticated when no identity has been resolved.
// Side-effect free; must run before any tenant data is read or written.
func RequireAuth(ctx context.Context) (*model.Identity, error) {
	ident := IdentityFromContext(ctx)
	if ident == nil {
		return nil, ErrUnauthenticated
	}
	return ident, nil
}

// RequireRole returns the caller identity if its role is one of allowed.
// Authentication is checked first, so an anonymous caller fails with
// ErrUnauthenticated rather than ErrForbidden.
func RequireRole(ctx context.Context, allowed ...model.Role) (*model.Identity, error) {
	ident, err := RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(allowed, ident.Role) {
		return nil, fmt.Errorf("%w: role %s is not permitted", ErrForbidden, ident.Role)
	}
	return ident, nil
}
