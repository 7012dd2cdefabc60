package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openarms-org/backoffice/internal/models"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// SessionVerifier looks up a non-expired session and its owning user.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*models.AdminUser, error)
}

// PermissionResolver computes a user's effective permission set.
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, user *models.AdminUser) ([]models.Permission, error)
}

// Authenticate validates the bearer token and injects a SessionContext.
// Missing, invalid or expired tokens and inactive accounts all map to 401
// with the SESSION_EXPIRED code so clients can force a re-login.
func Authenticate(verifier SessionVerifier, resolver PermissionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := pkghttp.BearerToken(r)
			if token == "" {
				pkghttp.WriteUnauthorized(w, "missing or malformed authorization header")
				return
			}

			user, err := verifier.VerifySession(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, models.ErrSessionInvalid):
					pkghttp.WriteUnauthorized(w, "session is invalid or expired")
				case errors.Is(err, models.ErrUserInactive):
					pkghttp.WriteUnauthorized(w, "account is deactivated")
				default:
					pkghttp.WriteInternalError(w, "failed to verify session")
				}
				return
			}

			perms, err := resolver.EffectivePermissions(r.Context(), user)
			if err != nil {
				pkghttp.WriteInternalError(w, "failed to resolve permissions")
				return
			}

			sc := &SessionContext{Token: token, User: user, Permissions: perms}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sc)))
		})
	}
}

// RequirePermission gates a handler on a named capability. It distinguishes
// unauthenticated (401) from authenticated-but-forbidden (403); the 403
// message names the missing permission.
func RequirePermission(required models.Permission) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := FromRequest(r)
			if sc == nil {
				pkghttp.WriteUnauthorized(w, "authentication required")
				return
			}

			if !sc.Has(required) {
				pkghttp.WriteForbidden(w, fmt.Sprintf("missing permission: %s", required))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
