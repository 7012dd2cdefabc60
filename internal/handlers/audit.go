package handlers

import (
	"context"
	"net/http"

	"github.com/openarms-org/backoffice/internal/models"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// AuditServiceInterface defines the interface for reading the audit trail
type AuditServiceInterface interface {
	List(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLogEntry, error)
}

// AuditHandler serves the read side of the audit trail.
type AuditHandler struct {
	service AuditServiceInterface
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service AuditServiceInterface) *AuditHandler {
	return &AuditHandler{service: service}
}

// List handles GET /api/audit-log. The user query parameter narrows to
// entries involving one account.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	entries, err := h.service.List(r.Context(), r.URL.Query().Get("user"), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, entries)
}
