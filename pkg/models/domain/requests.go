package domain

import "time"

// Request structs enumerate every recognized option per catalog
// operation. Zero values mean "engine default"; UseCache is opt-out.

type AggregatedMetricsRequest struct {
	TimePeriod   string `json:"time_period,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	UseCache     bool   `json:"-"`
}

type TimeSeriesRequest struct {
	Metric       string `json:"metric"`
	Interval     string `json:"interval"`
	DocumentType string `json:"document_type,omitempty"`
	UseCache     bool   `json:"-"`
}

type OutlierRequest struct {
	Features      []string `json:"features,omitempty"`
	Contamination float64  `json:"contamination"`
	UseCache      bool     `json:"-"`
}

type ZScoreOutlierRequest struct {
	ValueField string  `json:"value_field"`
	Threshold  float64 `json:"z_threshold"`
	UseCache   bool    `json:"-"`
}

type TrendRequest struct {
	MetricColumn string `json:"metric_column"`
	DateColumn   string `json:"date_column"`
	UseCache     bool   `json:"-"`
}

type SegmentRequest struct {
	Features  []string `json:"features,omitempty"`
	NClusters int      `json:"n_clusters"`
	UseCache  bool     `json:"-"`
}

type HistogramRequest struct {
	ValueField string `json:"value_field"`
	MaxBins    int    `json:"max_bins"`
	UseCache   bool   `json:"-"`
}

type KPIRequest struct {
	UseCache bool `json:"-"`
}

type VendorStatsRequest struct {
	Limit    int  `json:"limit"`
	UseCache bool `json:"-"`
}

type TransactionsRequest struct {
	Limit        int
	Skip         int
	DocumentType string
	StartDate    *time.Time
	EndDate      *time.Time
}
