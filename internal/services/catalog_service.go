package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/openarms-org/backoffice/internal/models"
)

// ProductRepository defines the interface for product catalog data access
type ProductRepository interface {
	Upsert(ctx context.Context, p *models.Product) (*models.Product, bool, error)
	List(ctx context.Context, category string, limit, offset int) ([]*models.Product, error)
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
}

// CatalogService imports the product catalog from spreadsheets and
// serves the imported products.
type CatalogService struct {
	products ProductRepository
	audit    AuditRecorder
	logger   *slog.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(products ProductRepository, audit AuditRecorder, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		audit:    audit,
		logger:   logger,
	}
}

// catalogHeaders maps recognized column headers to canonical field names.
// Matching is case-insensitive and tolerant of surrounding whitespace.
var catalogHeaders = map[string]string{
	"sku":         "sku",
	"article":     "sku",
	"name":        "name",
	"product":     "name",
	"category":    "category",
	"description": "description",
	"price":       "price",
	"unit":        "unit",
	"active":      "active",
}

// Import reads an xlsx spreadsheet and upserts each row into the catalog
// keyed by SKU. Malformed rows are reported per row and never abort the
// rest of the import.
func (s *CatalogService) Import(ctx context.Context, actor *models.AdminUser, reader io.Reader, ipAddress string) (*models.ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		s.logger.Info("rejected unreadable catalog upload", slog.Any("error", err))
		return nil, models.ErrBadRequest
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.ErrBadRequest
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		s.logger.Error("failed to read sheet rows", slog.Any("error", err))
		return nil, models.ErrBadRequest
	}
	if len(rows) < 2 {
		return nil, models.ErrBadRequest
	}

	columns := mapHeaderColumns(rows[0])
	if _, ok := columns["sku"]; !ok {
		return nil, models.ErrBadRequest
	}
	if _, ok := columns["name"]; !ok {
		return nil, models.ErrBadRequest
	}

	result := &models.ImportResult{Errors: make([]models.ImportRowError, 0)}

	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header

		product, err := parseCatalogRow(row, columns)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		if product == nil {
			// blank row
			continue
		}

		_, inserted, err := s.products.Upsert(ctx, product)
		if err != nil {
			if errors.Is(err, models.ErrBadRequest) {
				result.Skipped++
				result.Errors = append(result.Errors, models.ImportRowError{Row: rowNum, Reason: "row rejected by database"})
				continue
			}
			s.logger.Error("failed to upsert product",
				slog.String("sku", product.SKU), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		if inserted {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("catalog import finished",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))
	s.audit.Record(&actor.ID, models.AuditActionCatalogImport, nil,
		models.AuditDetails{
			"created": result.Created,
			"updated": result.Updated,
			"skipped": result.Skipped,
		}, ipAddress)

	return result, nil
}

// ListProducts returns catalog products, optionally filtered by category.
func (s *CatalogService) ListProducts(ctx context.Context, category string, limit, offset int) ([]*models.Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.products.List(ctx, category, limit, offset)
	if err != nil {
		s.logger.Error("failed to list products", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return products, nil
}

func mapHeaderColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if field, ok := catalogHeaders[key]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	return columns
}

func cellAt(row []string, idx int, ok bool) string {
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseCatalogRow(row []string, columns map[string]int) (*models.Product, error) {
	get := func(field string) string {
		idx, ok := columns[field]
		return cellAt(row, idx, ok)
	}

	sku := get("sku")
	name := get("name")
	if sku == "" && name == "" {
		return nil, nil
	}
	if sku == "" {
		return nil, fmt.Errorf("missing sku")
	}
	if name == "" {
		return nil, fmt.Errorf("missing name")
	}

	product := &models.Product{
		SKU:         sku,
		Name:        name,
		Category:    get("category"),
		Description: get("description"),
		Unit:        get("unit"),
		Active:      true,
	}

	if raw := get("price"); raw != "" {
		raw = strings.ReplaceAll(raw, ",", ".")
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return nil, fmt.Errorf("invalid price %q", raw)
		}
		product.Price = price
	}

	if raw := get("active"); raw != "" {
		switch strings.ToLower(raw) {
		case "true", "yes", "y", "1":
			product.Active = true
		case "false", "no", "n", "0":
			product.Active = false
		default:
			return nil, fmt.Errorf("invalid active flag %q", raw)
		}
	}

	return product, nil
}
