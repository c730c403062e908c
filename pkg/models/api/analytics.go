package api

// Transaction is the API shape of one record in the paginated listing,
// annotated with the outlier flag the dashboard highlights.
type Transaction struct {
	ID            string   `json:"id"`
	DocumentType  string   `json:"document_type,omitempty"`
	Vendor        string   `json:"vendor,omitempty"`
	Category      string   `json:"category,omitempty"`
	Total         float64  `json:"total"`
	Quantity      *float64 `json:"quantity,omitempty"`
	UnitPrice     *float64 `json:"unit_price,omitempty"`
	Date          string   `json:"date"`
	SourceFile    string   `json:"source_file,omitempty"`
	IsOutlier     bool     `json:"is_outlier"`
	OutlierReason string   `json:"outlier_reason,omitempty"`
}

type TransactionPage struct {
	Results []Transaction `json:"results"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	Pages   int           `json:"pages"`
}

type Error struct {
	Error string `json:"error"`
}

type Health struct {
	Status       string `json:"status"`
	RecordsCount int64  `json:"records_count"`
}
