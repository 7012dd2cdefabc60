package integration

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// TestCredentials generates unique admin credentials using a timestamp
func TestCredentials(suffix string) (username, email, password string) {
	ts := time.Now().UnixNano()
	username = fmt.Sprintf("t%d%s", ts%1000000000, suffix)
	email = fmt.Sprintf("test-%d-%s@example.org", ts, suffix)
	password = "TestPassword123"
	return
}

// CatalogSheet builds an xlsx workbook from a header row and data rows
func CatalogSheet(rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SampleCatalog returns a small valid catalog workbook
func SampleCatalog() ([]byte, error) {
	return CatalogSheet([][]interface{}{
		{"sku", "name", "category", "price", "unit", "active"},
		{"RICE-1KG", "Rice 1kg", "food", "2,50", "bag", "yes"},
		{"SOAP-01", "Hand Soap", "hygiene", "1.20", "piece", "true"},
	})
}
