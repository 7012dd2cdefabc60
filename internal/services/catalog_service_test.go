package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openarms-org/backoffice/internal/models"
)

func buildSheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func newCatalogService(products *mockProductRepo, audit *recordingAudit) *CatalogService {
	return NewCatalogService(products, audit, testLogger())
}

func TestCatalogImport_CreatesAndUpdates(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"SKU", "Name", "Category", "Price", "Unit", "Active"},
		{"FB-001", "Rice 5kg", "food", "12.50", "bag", "yes"},
		{"FB-002", "Beans 1kg", "food", "3,20", "bag", ""},
	})

	upserted := make(map[string]*models.Product)
	products := &mockProductRepo{
		UpsertFunc: func(ctx context.Context, p *models.Product) (*models.Product, bool, error) {
			upserted[p.SKU] = p
			return p, p.SKU == "FB-001", nil
		},
	}
	audit := &recordingAudit{}

	svc := newCatalogService(products, audit)
	result, err := svc.Import(context.Background(), adminActor(), buf, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	require.Contains(t, upserted, "FB-001")
	assert.InDelta(t, 12.50, upserted["FB-001"].Price, 0.001)
	assert.True(t, upserted["FB-001"].Active)
	// comma decimal separator is normalized
	assert.InDelta(t, 3.20, upserted["FB-002"].Price, 0.001)

	assert.Contains(t, audit.actions(), models.AuditActionCatalogImport)
}

func TestCatalogImport_BadRowsReportedNotFatal(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"sku", "name", "price"},
		{"OK-1", "Good row", "5"},
		{"", "Missing sku", "5"},
		{"BAD-P", "Bad price", "not-a-number"},
		{"BAD-A", "", "5"},
	})

	products := &mockProductRepo{
		UpsertFunc: func(ctx context.Context, p *models.Product) (*models.Product, bool, error) {
			return p, true, nil
		},
	}

	svc := newCatalogService(products, &recordingAudit{})
	result, err := svc.Import(context.Background(), adminActor(), buf, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 3, result.Skipped)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 3, result.Errors[0].Row)
}

func TestCatalogImport_BlankRowsIgnored(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"sku", "name"},
		{"A-1", "First"},
		{"", ""},
		{"A-2", "Second"},
	})

	products := &mockProductRepo{
		UpsertFunc: func(ctx context.Context, p *models.Product) (*models.Product, bool, error) {
			return p, true, nil
		},
	}

	svc := newCatalogService(products, &recordingAudit{})
	result, err := svc.Import(context.Background(), adminActor(), buf, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Skipped)
}

func TestCatalogImport_MissingRequiredHeaders(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"code", "label"},
		{"A-1", "First"},
	})

	svc := newCatalogService(&mockProductRepo{}, &recordingAudit{})
	_, err := svc.Import(context.Background(), adminActor(), buf, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCatalogImport_NotASpreadsheet(t *testing.T) {
	svc := newCatalogService(&mockProductRepo{}, &recordingAudit{})
	_, err := svc.Import(context.Background(), adminActor(), strings.NewReader("definitely,a,csv"), "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestListProducts_DefaultsLimit(t *testing.T) {
	var gotLimit int
	products := &mockProductRepo{
		ListFunc: func(ctx context.Context, category string, limit, offset int) ([]*models.Product, error) {
			gotLimit = limit
			return []*models.Product{}, nil
		},
	}

	svc := newCatalogService(products, &recordingAudit{})
	_, err := svc.ListProducts(context.Background(), "", 0, 0)

	require.NoError(t, err)
	assert.Equal(t, 100, gotLimit)
}
