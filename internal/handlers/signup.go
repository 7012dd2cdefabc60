package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openarms-org/backoffice/internal/auth"
	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/services"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// SignupServiceInterface defines the interface for signup request handling
type SignupServiceInterface interface {
	CreateRequest(ctx context.Context, input services.CreateRequestInput, ipAddress string) (*models.SignupRequest, error)
	ListRequests(ctx context.Context, actor *models.AdminUser, status string, limit, offset int) ([]*models.SignupRequest, error)
	GetRequest(ctx context.Context, actor *models.AdminUser, id string) (*models.SignupRequest, error)
	Approve(ctx context.Context, actor *models.AdminUser, requestID string, role models.Role, overrides []models.PermissionOverride, ipAddress string) (*models.AdminUser, error)
	Reject(ctx context.Context, actor *models.AdminUser, requestID, reason, ipAddress string) (*models.SignupRequest, error)
}

// SignupHandler handles public signup submissions and their review.
type SignupHandler struct {
	service SignupServiceInterface
}

// NewSignupHandler creates a new SignupHandler
func NewSignupHandler(service SignupServiceInterface) *SignupHandler {
	return &SignupHandler{service: service}
}

// SignupRequestBody represents the public signup form
type SignupRequestBody struct {
	Username     string `json:"username" validate:"required,username"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	FullName     string `json:"full_name" validate:"required,min=1,max=100"`
	Reason       string `json:"reason" validate:"omitempty,max=1000"`
	Organization string `json:"organization" validate:"omitempty,max=200"`
}

// ApproveRequestBody represents a review decision granting access
type ApproveRequestBody struct {
	Role        string `json:"role" validate:"omitempty,oneof=viewer manager admin"`
	Permissions []struct {
		Permission string `json:"permission" validate:"required"`
		Granted    bool   `json:"granted"`
	} `json:"permissions" validate:"omitempty,dive"`
}

// RejectRequestBody represents a review decision denying access
type RejectRequestBody struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// SignupResponse is the wire shape of a signup request. The stored
// password hash is never exposed.
type SignupResponse struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Reason         string     `json:"reason,omitempty"`
	Organization   string     `json:"organization,omitempty"`
	Status         string     `json:"status"`
	ReviewedBy     *string    `json:"reviewed_by,omitempty"`
	DecisionReason *string    `json:"decision_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}

func toSignupResponse(req *models.SignupRequest) *SignupResponse {
	return &SignupResponse{
		ID:             req.ID,
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		Reason:         req.Reason,
		Organization:   req.Organization,
		Status:         req.Status,
		ReviewedBy:     req.ReviewedBy,
		DecisionReason: req.DecisionReason,
		CreatedAt:      req.CreatedAt,
		ReviewedAt:     req.ReviewedAt,
	}
}

// Create handles POST /api/signup-requests (public, unauthenticated)
func (h *SignupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SignupRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.CreateRequest(r.Context(), services.CreateRequestInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		Reason:       req.Reason,
		Organization: req.Organization,
	}, pkghttp.ExtractClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteAlreadyExists(w, "username or email already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "invalid signup request")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, toSignupResponse(created))
}

// List handles GET /api/signup-requests
func (h *SignupHandler) List(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	limit, offset := parsePagination(r)
	status := r.URL.Query().Get("status")

	requests, err := h.service.ListRequests(r.Context(), sc.User, status, limit, offset)
	if err != nil {
		writeSignupServiceError(w, err)
		return
	}

	out := make([]*SignupResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toSignupResponse(req))
	}
	pkghttp.WriteSuccess(w, http.StatusOK, out)
}

// Get handles GET /api/signup-requests/{id}
func (h *SignupHandler) Get(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	req, err := h.service.GetRequest(r.Context(), sc.User, chi.URLParam(r, "id"))
	if err != nil {
		writeSignupServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, toSignupResponse(req))
}

// Approve handles PUT /api/signup-requests/{id}
func (h *SignupHandler) Approve(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req ApproveRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	overrides := make([]models.PermissionOverride, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		overrides = append(overrides, models.PermissionOverride{
			Permission: models.Permission(p.Permission),
			Granted:    p.Granted,
		})
	}

	user, err := h.service.Approve(r.Context(), sc.User, chi.URLParam(r, "id"),
		models.Role(req.Role), overrides, pkghttp.ExtractClientIP(r))
	if err != nil {
		writeSignupServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, toUserResponse(user))
}

// Reject handles DELETE /api/signup-requests/{id}
func (h *SignupHandler) Reject(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req RejectRequestBody
	if r.Body != nil {
		// An empty body means rejection without a stated reason
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	rejected, err := h.service.Reject(r.Context(), sc.User, chi.URLParam(r, "id"),
		req.Reason, pkghttp.ExtractClientIP(r))
	if err != nil {
		writeSignupServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, toSignupResponse(rejected))
}

func writeSignupServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "signup request not found")
	case errors.Is(err, models.ErrAlreadyReviewed):
		pkghttp.WriteBadRequest(w, "request has already been reviewed")
	case errors.Is(err, models.ErrSuperAdminRequired):
		pkghttp.WriteForbidden(w, "super admin privileges required")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteAlreadyExists(w, "username or email already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "invalid request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
