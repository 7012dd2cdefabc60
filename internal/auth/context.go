package auth

import (
	"context"
	"net/http"

	"github.com/openarms-org/backoffice/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const sessionContextKey contextKey = "session"

// SessionContext carries the authenticated user and resolved permissions
// through a single request. It is injected by Authenticate and read back
// through FromRequest; there is no ambient session state anywhere else.
type SessionContext struct {
	Token       string
	User        *models.AdminUser
	Permissions []models.Permission
}

// Has reports whether the session's effective permission set contains the
// required capability.
func (sc *SessionContext) Has(required models.Permission) bool {
	return models.HasPermission(sc.Permissions, required)
}

// WithSession returns a context carrying the session. Used by the
// Authenticate middleware and by handler tests.
func WithSession(ctx context.Context, sc *SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey, sc)
}

// FromRequest extracts the session context, or nil if the request is
// unauthenticated.
func FromRequest(r *http.Request) *SessionContext {
	sc, ok := r.Context().Value(sessionContextKey).(*SessionContext)
	if !ok {
		return nil
	}
	return sc
}
