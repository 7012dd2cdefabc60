package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openarms-org/backoffice/internal/auth"
	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/repositories"
	"github.com/openarms-org/backoffice/internal/services"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// ServiceRequestServiceInterface defines the interface for request tracking
type ServiceRequestServiceInterface interface {
	Create(ctx context.Context, input services.CreateServiceRequestInput) (*models.ServiceRequest, error)
	List(ctx context.Context, filter repositories.ServiceRequestFilter) ([]*models.ServiceRequest, error)
	Get(ctx context.Context, id string) (*models.ServiceRequest, error)
	Update(ctx context.Context, actor *models.AdminUser, id string, input services.UpdateServiceRequestInput, ipAddress string) (*models.ServiceRequest, error)
	AddComment(ctx context.Context, actor *models.AdminUser, requestID, content string) (*models.RequestComment, error)
}

// ServiceRequestsHandler handles public intake and staff tracking.
type ServiceRequestsHandler struct {
	service ServiceRequestServiceInterface
}

// NewServiceRequestsHandler creates a new ServiceRequestsHandler
func NewServiceRequestsHandler(service ServiceRequestServiceInterface) *ServiceRequestsHandler {
	return &ServiceRequestsHandler{service: service}
}

// CreateServiceRequestBody represents the public intake form
type CreateServiceRequestBody struct {
	OfferingCategory string                `json:"offering_category" validate:"required,max=100"`
	OfferingName     string                `json:"offering_name" validate:"required,max=200"`
	CustomerName     string                `json:"customer_name" validate:"required,min=1,max=100"`
	CustomerEmail    string                `json:"customer_email" validate:"required,email"`
	CustomerPhone    string                `json:"customer_phone" validate:"required,max=30"`
	CustomerAddress  string                `json:"customer_address" validate:"required,max=300"`
	Details          models.RequestDetails `json:"details"`
}

// UpdateServiceRequestBody represents staff changes to a request
type UpdateServiceRequestBody struct {
	Status   *string `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Priority *string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

// AddCommentBody represents a staff comment
type AddCommentBody struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// Create handles POST /api/service-requests (public, unauthenticated)
func (h *ServiceRequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), services.CreateServiceRequestInput{
		OfferingCategory: req.OfferingCategory,
		OfferingName:     req.OfferingName,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		CustomerAddress:  req.CustomerAddress,
		Details:          req.Details,
	})
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, created)
}

// List handles GET /api/service-requests
func (h *ServiceRequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	requests, err := h.service.List(r.Context(), repositories.ServiceRequestFilter{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "invalid status filter")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, requests)
}

// Get handles GET /api/service-requests/{id}
func (h *ServiceRequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "service request not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, req)
}

// Update handles PATCH /api/service-requests/{id}
func (h *ServiceRequestsHandler) Update(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req UpdateServiceRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), sc.User, chi.URLParam(r, "id"), services.UpdateServiceRequestInput{
		Status:   req.Status,
		Priority: req.Priority,
		Notes:    req.Notes,
	}, pkghttp.ExtractClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "service request not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "invalid update")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, updated)
}

// AddComment handles PUT /api/service-requests/{id} (appends to the thread)
func (h *ServiceRequestsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req AddCommentBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.service.AddComment(r.Context(), sc.User, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "service request not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "invalid comment")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, comment)
}
