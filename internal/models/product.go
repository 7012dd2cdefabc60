package models

import "time"

// Product is one catalog entry. Rows are upserted by SKU during imports.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Category    string
	Description string
	Price       float64
	Unit        string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ImportRowError records why one spreadsheet row was skipped.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult summarizes one catalog import run.
type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}
