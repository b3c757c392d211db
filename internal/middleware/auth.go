package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/orgbase/orgbase/internal/auth"
	"github.com/orgbase/orgbase/internal/model"
)

// UserSource loads user rows for identity resolution.
type UserSource interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// IdentityCache caches resolved identities keyed by token fingerprint.
type IdentityCache interface {
	GetIdentity(ctx context.Context, fingerprint string) (*model.Identity, error)
	SetIdentity(ctx context.Context, fingerprint string, ident *model.Identity) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Tokens *auth.TokenManager
	Users  UserSource
	Cache  IdentityCache
}

// Auth returns a middleware that authenticates API requests.
// It verifies the bearer token, resolves the caller's company and role
// (cache-first, then the users table), and installs a read-only Identity
// into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			userID, err := cfg.Tokens.Verify(token)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_token")
				writeAuthError(w)
				return
			}

			fingerprint := auth.TokenFingerprint(token)

			ident, _ := cfg.Cache.GetIdentity(r.Context(), fingerprint)
			if ident == nil {
				user, err := cfg.Users.GetUserByID(r.Context(), userID)
				if err != nil {
					// Unknown subject and lookup failures get the same
					// response to prevent enumeration.
					logAuthFailure(cfg.Logger, r, "unknown_user")
					writeAuthError(w)
					return
				}

				ident = &model.Identity{
					UserID:    user.ID,
					CompanyID: user.CompanyID,
					Role:      user.Role,
				}
				_ = cfg.Cache.SetIdentity(r.Context(), fingerprint, ident)
			}

			cfg.Logger.Info("authentication successful",
				slog.String("user_id", ident.UserID),
				slog.String("company_id", ident.CompanyID),
				slog.String("role", string(ident.Role)),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithIdentity(r.Context(), ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the access token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing access token","code":"UNAUTHENTICATED"}`))
}
