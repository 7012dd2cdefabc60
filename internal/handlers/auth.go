package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/services"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error)
	Logout(ctx context.Context, token, ipAddress string) error
	VerifySession(ctx context.Context, token string) (*models.AdminUser, error)
}

// PermissionResolverInterface resolves effective permission sets for the
// verify response.
type PermissionResolverInterface interface {
	EffectivePermissions(ctx context.Context, user *models.AdminUser) ([]models.Permission, error)
}

// AuthHandler handles the admin-auth endpoint. The single path dispatches
// on the action query parameter: login and logout via POST, verify via GET.
type AuthHandler struct {
	service     AuthServiceInterface
	permissions PermissionResolverInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, permissions PermissionResolverInterface) *AuthHandler {
	return &AuthHandler{
		service:     service,
		permissions: permissions,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token and the user it belongs to.
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// VerifyResponse carries the session owner and their effective permissions.
type VerifyResponse struct {
	User        *UserResponse       `json:"user"`
	Permissions []models.Permission `json:"permissions"`
}

// Handle dispatches on the action query parameter.
func (h *AuthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")

	switch {
	case r.Method == http.MethodPost && action == "login":
		h.login(w, r)
	case r.Method == http.MethodPost && action == "logout":
		h.logout(w, r)
	case r.Method == http.MethodGet && action == "verify":
		h.verify(w, r)
	case action == "":
		pkghttp.WriteBadRequest(w, "missing action parameter")
	default:
		pkghttp.WriteBadRequest(w, "unknown action: "+action)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r)
	userAgent := r.Header.Get("User-Agent")

	result, err := h.service.Login(r.Context(), req.Username, req.Password, ipAddress, userAgent)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrUserInactive):
			// Same response for bad credentials and disabled accounts to
			// prevent user enumeration
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, LoginResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	token := pkghttp.BearerToken(r)
	if token == "" {
		pkghttp.WriteUnauthorized(w, "missing or malformed authorization header")
		return
	}

	if err := h.service.Logout(r.Context(), token, pkghttp.ExtractClientIP(r)); err != nil {
		switch {
		case errors.Is(err, models.ErrSessionInvalid):
			pkghttp.WriteUnauthorized(w, "session is invalid or expired")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccessMessage(w, http.StatusOK, "logged out")
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request) {
	token := pkghttp.BearerToken(r)
	if token == "" {
		pkghttp.WriteUnauthorized(w, "missing or malformed authorization header")
		return
	}

	user, err := h.service.VerifySession(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrSessionInvalid), errors.Is(err, models.ErrUserInactive):
			pkghttp.WriteUnauthorized(w, "session is invalid or expired")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	perms, err := h.permissions.EffectivePermissions(r.Context(), user)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, VerifyResponse{
		User:        toUserResponse(user),
		Permissions: perms,
	})
}
