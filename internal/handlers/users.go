package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openarms-org/backoffice/internal/auth"
	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/services"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// UserServiceInterface defines the interface for admin user management
type UserServiceInterface interface {
	CreateUser(ctx context.Context, actor *models.AdminUser, input services.CreateUserInput, ipAddress string) (*models.AdminUser, error)
	GetUser(ctx context.Context, id string) (*models.AdminUser, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.AdminUser, error)
	UpdateUser(ctx context.Context, actor *models.AdminUser, id string, input services.UpdateUserInput, ipAddress string) (*models.AdminUser, error)
	DeleteUser(ctx context.Context, actor *models.AdminUser, id, ipAddress string) error
	SetPermissionOverride(ctx context.Context, actor *models.AdminUser, userID string, perm models.Permission, granted bool, ipAddress string) error
	ClearPermissionOverride(ctx context.Context, actor *models.AdminUser, userID string, perm models.Permission, ipAddress string) error
}

// UserPermissionResolver resolves effective permissions for the
// per-user permissions view.
type UserPermissionResolver interface {
	EffectivePermissions(ctx context.Context, user *models.AdminUser) ([]models.Permission, error)
}

// UsersHandler handles admin account CRUD and permission overrides.
type UsersHandler struct {
	service     UserServiceInterface
	permissions UserPermissionResolver
}

// NewUsersHandler creates a new UsersHandler
func NewUsersHandler(service UserServiceInterface, permissions UserPermissionResolver) *UsersHandler {
	return &UsersHandler{
		service:     service,
		permissions: permissions,
	}
}

// UserResponse is the wire shape of an admin account. The password hash
// never leaves the server.
type UserResponse struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FullName    string      `json:"full_name"`
	Role        models.Role `json:"role"`
	Active      bool        `json:"active"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func toUserResponse(u *models.AdminUser) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toUserResponses(users []*models.AdminUser) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// CreateUserRequest represents the request body for creating an account
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=viewer manager admin super_admin"`
}

// UpdateUserRequest represents the request body for updating an account
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	Role     *string `json:"role" validate:"omitempty,oneof=viewer manager admin super_admin"`
	Active   *bool   `json:"active"`
}

// PermissionOverrideRequest represents the request body for setting an override
type PermissionOverrideRequest struct {
	Permission string `json:"permission" validate:"required"`
	Granted    *bool  `json:"granted" validate:"required"`
}

// UserPermissionsResponse carries a user's resolved permission set.
type UserPermissionsResponse struct {
	UserID      string              `json:"user_id"`
	Role        models.Role         `json:"role"`
	Permissions []models.Permission `json:"permissions"`
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// List handles GET /api/admin-users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, toUserResponses(users))
}

// Get handles GET /api/admin-users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "user not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, toUserResponse(user))
}

// Create handles POST /api/admin-users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.CreateUser(r.Context(), sc.User, services.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     models.Role(req.Role),
	}, pkghttp.ExtractClientIP(r))
	if err != nil {
		writeUserServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, toUserResponse(created))
}

// Update handles PUT /api/admin-users/{id}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	input := services.UpdateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Active:   req.Active,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		input.Role = &role
	}

	updated, err := h.service.UpdateUser(r.Context(), sc.User, chi.URLParam(r, "id"), input, pkghttp.ExtractClientIP(r))
	if err != nil {
		writeUserServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, toUserResponse(updated))
}

// Delete handles DELETE /api/admin-users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	err := h.service.DeleteUser(r.Context(), sc.User, chi.URLParam(r, "id"), pkghttp.ExtractClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrSelfDelete):
			pkghttp.WriteBadRequest(w, "cannot delete your own account")
		default:
			writeUserServiceError(w, err)
		}
		return
	}

	pkghttp.WriteSuccessMessage(w, http.StatusOK, "user deleted")
}

// GetPermissions handles GET /api/admin-users/{id}/permissions
func (h *UsersHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "user not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	perms, err := h.permissions.EffectivePermissions(r.Context(), user)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, UserPermissionsResponse{
		UserID:      user.ID,
		Role:        user.Role,
		Permissions: perms,
	})
}

// SetPermission handles PATCH /api/admin-users/{id}/permissions
func (h *UsersHandler) SetPermission(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req PermissionOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.SetPermissionOverride(r.Context(), sc.User, chi.URLParam(r, "id"),
		models.Permission(req.Permission), *req.Granted, pkghttp.ExtractClientIP(r))
	if err != nil {
		writeUserServiceError(w, err)
		return
	}

	pkghttp.WriteSuccessMessage(w, http.StatusOK, "permission override saved")
}

// ClearPermission handles DELETE /api/admin-users/{id}/permissions/{permission}
func (h *UsersHandler) ClearPermission(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	err := h.service.ClearPermissionOverride(r.Context(), sc.User, chi.URLParam(r, "id"),
		models.Permission(chi.URLParam(r, "permission")), pkghttp.ExtractClientIP(r))
	if err != nil {
		writeUserServiceError(w, err)
		return
	}

	pkghttp.WriteSuccessMessage(w, http.StatusOK, "permission override cleared")
}

func writeUserServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "user not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteAlreadyExists(w, "username or email already exists")
	case errors.Is(err, models.ErrSuperAdminRequired):
		pkghttp.WriteForbidden(w, "super admin privileges required")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "invalid request")
	case errors.Is(err, models.ErrSchemaMissing):
		pkghttp.WriteBadRequest(w, "permission overrides are not enabled for this deployment")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
