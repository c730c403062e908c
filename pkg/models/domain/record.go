package domain

import "time"

// Record is a read-only snapshot of one financial document. Quantity and
// UnitPrice are optional fields of the source document.
type Record struct {
	ID           string
	DocumentType string
	Vendor       string
	Category     string
	Total        float64
	Quantity     *float64
	UnitPrice    *float64
	Date         time.Time
	SourceFile   string
}

// NumericFields lists the numeric columns a record projection can expose.
var NumericFields = []string{"total", "quantity", "unit_price"}

// NumericValue returns the named numeric field and whether it is present
// on this record.
func (r Record) NumericValue(field string) (float64, bool) {
	switch field {
	case "total":
		return r.Total, true
	case "quantity":
		if r.Quantity == nil {
			return 0, false
		}
		return *r.Quantity, true
	case "unit_price":
		if r.UnitPrice == nil {
			return 0, false
		}
		return *r.UnitPrice, true
	default:
		return 0, false
	}
}
