package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openarms-org/backoffice/internal/models"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// FeedbackServiceInterface defines the interface for feedback handling
type FeedbackServiceInterface interface {
	Create(ctx context.Context, rating int, message, page string) (*models.Feedback, error)
	List(ctx context.Context, limit, offset int) ([]*models.Feedback, error)
	Stats(ctx context.Context) (*models.FeedbackStats, error)
}

// FeedbackHandler handles anonymous feedback collection and analytics.
type FeedbackHandler struct {
	service FeedbackServiceInterface
}

// NewFeedbackHandler creates a new FeedbackHandler
func NewFeedbackHandler(service FeedbackServiceInterface) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// CreateFeedbackBody represents the public feedback form
type CreateFeedbackBody struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Message string `json:"message" validate:"omitempty,max=2000"`
	Page    string `json:"page" validate:"omitempty,max=200"`
}

// Create handles POST /api/feedback (public, unauthenticated)
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedbackBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), req.Rating, req.Message, req.Page)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "rating must be between 1 and 5")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, created)
}

// List handles GET /api/feedback
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	entries, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, entries)
}

// Stats handles GET /api/feedback/stats
func (h *FeedbackHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, stats)
}
