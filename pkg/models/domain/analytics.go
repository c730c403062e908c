package domain

// Status distinguishes "no data" and "not enough data" from a valid
// zero-valued result, so callers never have to guess from the payload.
type Status string

const (
	StatusOK               Status = "ok"
	StatusEmpty            Status = "empty"
	StatusInsufficientData Status = "insufficient_data"
)

type AggregatedMetrics struct {
	Status             Status  `json:"status"`
	TotalAmount        float64 `json:"total_amount"`
	AverageTransaction float64 `json:"average_transaction"`
	TransactionCount   int64   `json:"transaction_count"`
	MinAmount          float64 `json:"min_amount"`
	MaxAmount          float64 `json:"max_amount"`
}

// TimeSeriesPoint is one period of an ordered series. MovingAvg is only
// populated when the series has at least three points.
type TimeSeriesPoint struct {
	Period    string   `json:"period"`
	Value     float64  `json:"value"`
	MovingAvg *float64 `json:"moving_avg,omitempty"`
}

type OutlierRecord struct {
	ID            string  `json:"id"`
	DocumentType  string  `json:"document_type"`
	Vendor        string  `json:"vendor"`
	Amount        float64 `json:"amount"`
	Date          string  `json:"date"`
	OutlierScore  float64 `json:"outlier_score,omitempty"`
	PrimaryFactor string  `json:"primary_factor,omitempty"`
	ZScore        float64 `json:"z_score"`
	Reason        string  `json:"reason,omitempty"`
	SourceFile    string  `json:"source_file,omitempty"`
}

// ZScoreReport carries the flagged records together with the population
// statistics they were measured against.
type ZScoreReport struct {
	Status    Status          `json:"status"`
	Outliers  []OutlierRecord `json:"outliers"`
	Mean      float64         `json:"mean"`
	Std       float64         `json:"std"`
	Threshold float64         `json:"threshold"`
	Count     int             `json:"count"`
}

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendNeutral    TrendDirection = "neutral"
)

type ForecastPoint struct {
	PeriodIndex int     `json:"period_index"`
	Value       float64 `json:"value"`
}

type TrendReport struct {
	Status     Status          `json:"status"`
	Direction  TrendDirection  `json:"trend_direction"`
	Strength   float64         `json:"trend_strength"`
	Confidence float64         `json:"trend_confidence"`
	Slope      float64         `json:"slope"`
	Intercept  float64         `json:"intercept"`
	RSquared   float64         `json:"r_squared"`
	Forecast   []ForecastPoint `json:"forecast"`
}

// NeutralTrend is the defined fallback for degenerate trend input.
func NeutralTrend(status Status) *TrendReport {
	return &TrendReport{
		Status:    status,
		Direction: TrendNeutral,
		Forecast:  []ForecastPoint{},
	}
}

type FeatureStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Std  float64 `json:"std"`
}

type Cluster struct {
	ClusterID int                `json:"cluster_id"`
	Center    map[string]float64 `json:"center"`
}

type ClusterStats struct {
	ClusterID       int                     `json:"cluster_id"`
	Size            int                     `json:"size"`
	Percentage      float64                 `json:"percentage"`
	Features        map[string]FeatureStats `json:"features"`
	Characteristics []string                `json:"characteristics"`
}

type ClusterReport struct {
	Status       Status         `json:"status"`
	Clusters     []Cluster      `json:"clusters"`
	ClusterStats []ClusterStats `json:"cluster_stats"`
	FeaturesUsed []string       `json:"features_used"`
	TotalRecords int            `json:"total_records"`
}

type HistogramBin struct {
	Bin        int     `json:"bin"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Histogram struct {
	Status     Status         `json:"status"`
	Bins       []HistogramBin `json:"bins"`
	BinWidth   float64        `json:"bin_width"`
	TotalCount int            `json:"total_count"`
	MinValue   float64        `json:"min_value"`
	MaxValue   float64        `json:"max_value"`
	Method     string         `json:"bin_method"`
}

type TopVendor struct {
	Name             string  `json:"name"`
	Amount           float64 `json:"amount"`
	TransactionCount int64   `json:"transaction_count"`
}

type TopDocumentType struct {
	Type   string  `json:"type"`
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

// KPISnapshot is the consolidated dashboard view. It is recomputed as a
// whole on every cache miss, never maintained incrementally.
type KPISnapshot struct {
	TotalTransactions    int64           `json:"total_transactions"`
	TotalAmount          float64         `json:"total_amount"`
	AverageTransaction   float64         `json:"average_transaction"`
	MonthOverMonthGrowth float64         `json:"month_over_month_growth"`
	TopVendor            TopVendor       `json:"top_vendor"`
	TopDocumentType      TopDocumentType `json:"top_document_type"`
	OutlierCount         int             `json:"outlier_count"`
	TrendDirection       TrendDirection  `json:"trend_direction"`
	TrendStrength        float64         `json:"trend_strength"`
	TrendConfidence      float64         `json:"trend_confidence"`
}

type VendorStats struct {
	Name             string  `json:"name"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int64   `json:"transaction_count"`
}

type Transaction struct {
	Record
	IsOutlier     bool   `json:"is_outlier"`
	OutlierReason string `json:"outlier_reason,omitempty"`
}

type TransactionPage struct {
	Results []Transaction `json:"results"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	Pages   int           `json:"pages"`
}
