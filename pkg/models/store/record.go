package store

import "time"

// FinancialRecord is the row shape of the financial_records table.
// Quantity and UnitPrice are optional in the source documents.
type FinancialRecord struct {
	ID           string
	DocumentType string
	Vendor       string
	Category     string
	Total        float64
	Quantity     *float64
	UnitPrice    *float64
	Date         time.Time
	SourceFile   string
	Metadata     map[string]string
}
