package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/openarms-org/backoffice/internal/auth"
	"github.com/openarms-org/backoffice/internal/models"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// maxUploadSize caps catalog spreadsheet uploads at 10 MiB.
const maxUploadSize = 10 << 20

// CatalogServiceInterface defines the interface for the product catalog
type CatalogServiceInterface interface {
	Import(ctx context.Context, actor *models.AdminUser, reader io.Reader, ipAddress string) (*models.ImportResult, error)
	ListProducts(ctx context.Context, category string, limit, offset int) ([]*models.Product, error)
}

// CatalogHandler handles spreadsheet imports and product listings.
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Import handles POST /api/catalog/import. The spreadsheet arrives as the
// "file" part of a multipart form.
func (h *CatalogHandler) Import(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	if sc == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		pkghttp.WriteBadRequest(w, "expected a multipart upload with a file field")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		pkghttp.WriteBadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	result, err := h.service.Import(r.Context(), sc.User, file, pkghttp.ExtractClientIP(r))
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "file is not a valid catalog spreadsheet")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, result)
}

// ListProducts handles GET /api/catalog/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, products)
}
