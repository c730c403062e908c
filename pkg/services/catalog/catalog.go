package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/ledger-atlas/pkg/adapters"
	"github.com/de-tools/ledger-atlas/pkg/models/domain"
	"github.com/de-tools/ledger-atlas/pkg/models/store"
	"github.com/de-tools/ledger-atlas/pkg/services/aggregation"
	"github.com/de-tools/ledger-atlas/pkg/services/cache"
	"github.com/de-tools/ledger-atlas/pkg/services/stats"
	cachestore "github.com/de-tools/ledger-atlas/pkg/store/duckdb/cache"
	"github.com/de-tools/ledger-atlas/pkg/store/duckdb/records"
)

const (
	DefaultTTL = time.Hour

	defaultVendorLimit = 10
	defaultPageSize    = 10
)

// Service exposes the named analysis operations. Every operation runs
// through the same wrapper: derive a cache key from the operation name
// and parameters, return a fresh-enough cached payload when allowed,
// otherwise compute, write back and return.
type Service interface {
	GetAggregatedMetrics(ctx context.Context, req domain.AggregatedMetricsRequest) (*domain.AggregatedMetrics, error)
	GetTimeSeries(ctx context.Context, req domain.TimeSeriesRequest) ([]domain.TimeSeriesPoint, error)
	DetectOutliers(ctx context.Context, req domain.OutlierRequest) ([]domain.OutlierRecord, error)
	DetectZScoreOutliers(ctx context.Context, req domain.ZScoreOutlierRequest) (*domain.ZScoreReport, error)
	DetectTrends(ctx context.Context, req domain.TrendRequest) (*domain.TrendReport, error)
	SegmentRecords(ctx context.Context, req domain.SegmentRequest) (*domain.ClusterReport, error)
	GetHistogram(ctx context.Context, req domain.HistogramRequest) (*domain.Histogram, error)
	GetKPIs(ctx context.Context, req domain.KPIRequest) (*domain.KPISnapshot, error)
	GetVendorStats(ctx context.Context, req domain.VendorStatsRequest) ([]domain.VendorStats, error)
	ListTransactions(ctx context.Context, req domain.TransactionsRequest) (*domain.TransactionPage, error)
	CountRecords(ctx context.Context) (int64, error)
}

type analyticsCatalog struct {
	records records.Store
	cache   cachestore.Store
	engine  *stats.Engine
	ttl     time.Duration
	now     func() time.Time
}

func NewService(
	recordStore records.Store,
	cacheStore cachestore.Store,
	engine *stats.Engine,
	ttl time.Duration,
) Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &analyticsCatalog{
		records: recordStore,
		cache:   cacheStore,
		engine:  engine,
		ttl:     ttl,
		now:     time.Now,
	}
}

// cached wraps one catalog computation with the cache protocol. Cache
// read or write failures degrade to recomputation; they never fail the
// operation itself.
func cached[T any](
	ctx context.Context,
	c *analyticsCatalog,
	name string,
	params any,
	useCache bool,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	logger := zerolog.Ctx(ctx)

	key, err := cache.ComputeKey(name, params)
	if err != nil {
		logger.Warn().Err(err).Str("query", name).Msg("cache key derivation failed, recomputing")
		return compute(ctx)
	}

	if useCache {
		payload, ok, err := c.cache.Get(ctx, key, c.ttl)
		if err != nil {
			logger.Warn().Err(err).Str("query", name).Msg("cache read failed, recomputing")
		} else if ok {
			var value T
			if err := json.Unmarshal(payload, &value); err == nil {
				return value, nil
			}
			logger.Warn().Err(err).Str("query", name).Msg("cache payload decode failed, recomputing")
		}
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	if payload, err := json.Marshal(value); err == nil {
		if err := c.cache.Put(ctx, key, payload); err != nil {
			logger.Warn().Err(err).Str("query", name).Msg("cache write failed")
		}
	}

	return value, nil
}

func (c *analyticsCatalog) GetAggregatedMetrics(
	ctx context.Context,
	req domain.AggregatedMetricsRequest,
) (*domain.AggregatedMetrics, error) {
	return cached(ctx, c, "aggregated_metrics", req, req.UseCache, func(ctx context.Context) (*domain.AggregatedMetrics, error) {
		filter := c.recordFilter(req.DocumentType, req.TimePeriod)

		rows, err := c.records.Aggregate(ctx, store.Pipeline{
			Match: filter,
			Group: &store.GroupStage{
				Accumulators: []store.Accumulator{
					{Name: "total_amount", Op: store.AccumSum, Field: "total"},
					{Name: "avg_amount", Op: store.AccumAvg, Field: "total"},
					{Name: "count", Op: store.AccumCount},
					{Name: "min_amount", Op: store.AccumMin, Field: "total"},
					{Name: "max_amount", Op: store.AccumMax, Field: "total"},
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("aggregate metrics: %w", err)
		}

		metrics := &domain.AggregatedMetrics{Status: domain.StatusEmpty}
		if len(rows) == 0 {
			return metrics, nil
		}

		row := rows[0]
		metrics.TotalAmount = row.Values["total_amount"]
		metrics.AverageTransaction = row.Values["avg_amount"]
		metrics.TransactionCount = int64(row.Values["count"])
		metrics.MinAmount = row.Values["min_amount"]
		metrics.MaxAmount = row.Values["max_amount"]
		if metrics.TransactionCount > 0 {
			metrics.Status = domain.StatusOK
		}
		return metrics, nil
	})
}

func (c *analyticsCatalog) GetTimeSeries(
	ctx context.Context,
	req domain.TimeSeriesRequest,
) ([]domain.TimeSeriesPoint, error) {
	req.Metric = aggregation.NormalizeMetric(req.Metric)
	req.Interval = aggregation.NormalizeInterval(req.Interval)

	return cached(ctx, c, "time_series", req, req.UseCache, func(ctx context.Context) ([]domain.TimeSeriesPoint, error) {
		filter := c.recordFilter(req.DocumentType, "")

		rows, err := c.records.Aggregate(ctx, store.Pipeline{
			Match: filter,
			Group: &store.GroupStage{
				Keys:         aggregation.GroupKeys(req.Interval),
				Accumulators: aggregation.Accumulators(),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("aggregate time series: %w", err)
		}

		return aggregation.BuildSeries(rows, req.Interval, req.Metric), nil
	})
}

func (c *analyticsCatalog) DetectOutliers(
	ctx context.Context,
	req domain.OutlierRequest,
) ([]domain.OutlierRecord, error) {
	return cached(ctx, c, "outliers", req, req.UseCache, func(ctx context.Context) ([]domain.OutlierRecord, error) {
		frame, err := c.loadFrame(ctx)
		if err != nil {
			return nil, err
		}
		return c.engine.DetectOutliers(frame, req.Features, req.Contamination), nil
	})
}

func (c *analyticsCatalog) DetectZScoreOutliers(
	ctx context.Context,
	req domain.ZScoreOutlierRequest,
) (*domain.ZScoreReport, error) {
	return cached(ctx, c, "zscore_outliers", req, req.UseCache, func(ctx context.Context) (*domain.ZScoreReport, error) {
		frame, err := c.loadFrame(ctx)
		if err != nil {
			return nil, err
		}
		return c.engine.ZScoreOutliers(frame, req.ValueField, req.Threshold), nil
	})
}

func (c *analyticsCatalog) DetectTrends(ctx context.Context, req domain.TrendRequest) (*domain.TrendReport, error) {
	if req.MetricColumn == "" {
		req.MetricColumn = "total"
	}
	if req.DateColumn == "" {
		req.DateColumn = "date"
	}

	return cached(ctx, c, "trends", req, req.UseCache, func(ctx context.Context) (*domain.TrendReport, error) {
		series, err := c.GetTimeSeries(ctx, domain.TimeSeriesRequest{
			Metric:   trendMetric(req.MetricColumn),
			Interval: aggregation.IntervalMonth,
			UseCache: req.UseCache,
		})
		if err != nil {
			return nil, fmt.Errorf("load trend series: %w", err)
		}
		return c.engine.DetectTrend(series), nil
	})
}

func (c *analyticsCatalog) SegmentRecords(ctx context.Context, req domain.SegmentRequest) (*domain.ClusterReport, error) {
	return cached(ctx, c, "segments", req, req.UseCache, func(ctx context.Context) (*domain.ClusterReport, error) {
		frame, err := c.loadFrame(ctx)
		if err != nil {
			return nil, err
		}
		return c.engine.Segment(frame, req.Features, req.NClusters), nil
	})
}

func (c *analyticsCatalog) GetHistogram(ctx context.Context, req domain.HistogramRequest) (*domain.Histogram, error) {
	if req.ValueField == "" {
		req.ValueField = "total"
	}

	return cached(ctx, c, "histogram", req, req.UseCache, func(ctx context.Context) (*domain.Histogram, error) {
		frame, err := c.loadFrame(ctx)
		if err != nil {
			return nil, err
		}

		values := make([]float64, 0, frame.Len())
		for i := 0; i < frame.Len(); i++ {
			if v, ok := frame.Record(i).NumericValue(req.ValueField); ok {
				values = append(values, v)
			}
		}
		return c.engine.AdaptiveBinning(values, req.MaxBins), nil
	})
}

func (c *analyticsCatalog) GetKPIs(ctx context.Context, req domain.KPIRequest) (*domain.KPISnapshot, error) {
	return cached(ctx, c, "kpis", struct{}{}, req.UseCache, func(ctx context.Context) (*domain.KPISnapshot, error) {
		metrics, err := c.GetAggregatedMetrics(ctx, domain.AggregatedMetricsRequest{UseCache: req.UseCache})
		if err != nil {
			return nil, err
		}

		series, err := c.GetTimeSeries(ctx, domain.TimeSeriesRequest{
			Metric:   aggregation.MetricAmount,
			Interval: aggregation.IntervalMonth,
			UseCache: req.UseCache,
		})
		if err != nil {
			return nil, err
		}

		// Month over month growth from the two most recent points. A
		// zero previous period reads as no growth, not a division.
		momGrowth := 0.0
		if len(series) >= 2 {
			current := series[len(series)-1].Value
			previous := series[len(series)-2].Value
			if previous != 0 {
				momGrowth = (current - previous) / previous * 100
			}
		}

		topVendor, err := c.topVendor(ctx)
		if err != nil {
			return nil, err
		}
		topDocType, err := c.topDocumentType(ctx)
		if err != nil {
			return nil, err
		}

		outliers, err := c.DetectOutliers(ctx, domain.OutlierRequest{UseCache: req.UseCache})
		if err != nil {
			return nil, err
		}

		trend, err := c.DetectTrends(ctx, domain.TrendRequest{UseCache: req.UseCache})
		if err != nil {
			return nil, err
		}

		return &domain.KPISnapshot{
			TotalTransactions:    metrics.TransactionCount,
			TotalAmount:          metrics.TotalAmount,
			AverageTransaction:   metrics.AverageTransaction,
			MonthOverMonthGrowth: momGrowth,
			TopVendor:            topVendor,
			TopDocumentType:      topDocType,
			OutlierCount:         len(outliers),
			TrendDirection:       trend.Direction,
			TrendStrength:        trend.Strength,
			TrendConfidence:      trend.Confidence,
		}, nil
	})
}

func (c *analyticsCatalog) GetVendorStats(
	ctx context.Context,
	req domain.VendorStatsRequest,
) ([]domain.VendorStats, error) {
	if req.Limit <= 0 {
		req.Limit = defaultVendorLimit
	}

	return cached(ctx, c, "vendor_stats", req, req.UseCache, func(ctx context.Context) ([]domain.VendorStats, error) {
		rows, err := c.records.Aggregate(ctx, store.Pipeline{
			Match: store.Filter{}.NotNull("vendor"),
			Group: &store.GroupStage{
				Keys: []store.GroupKey{{Name: "vendor", Field: "vendor"}},
				Accumulators: []store.Accumulator{
					{Name: "total_amount", Op: store.AccumSum, Field: "total"},
					{Name: "transaction_count", Op: store.AccumCount},
				},
			},
			Sort:  []store.SortField{{Name: "total_amount", Desc: true}},
			Limit: req.Limit,
		})
		if err != nil {
			return nil, fmt.Errorf("aggregate vendor stats: %w", err)
		}

		out := make([]domain.VendorStats, 0, len(rows))
		for _, row := range rows {
			out = append(out, domain.VendorStats{
				Name:             row.StringKey("vendor"),
				TotalAmount:      row.Values["total_amount"],
				TransactionCount: int64(row.Values["transaction_count"]),
			})
		}
		return out, nil
	})
}

// ListTransactions is a live paginated read; it is not cached, but it
// reuses the cached outlier set to annotate unusual records.
func (c *analyticsCatalog) ListTransactions(
	ctx context.Context,
	req domain.TransactionsRequest,
) (*domain.TransactionPage, error) {
	if req.Limit <= 0 {
		req.Limit = defaultPageSize
	}

	filter := store.Filter{}
	if req.DocumentType != "" {
		filter = filter.Eq("document_type", req.DocumentType)
	}
	if req.StartDate != nil {
		filter = filter.Gte("date", *req.StartDate)
	}
	if req.EndDate != nil {
		filter = filter.Lte("date", *req.EndDate)
	}

	total, err := c.records.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := c.records.Find(ctx, filter, store.FindOptions{
		SortBy:   "date",
		SortDesc: true,
		Limit:    req.Limit,
		Offset:   req.Skip,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	outliers, err := c.DetectOutliers(ctx, domain.OutlierRequest{UseCache: true})
	if err != nil {
		return nil, err
	}
	reasons := make(map[string]string, len(outliers))
	for _, o := range outliers {
		reasons[o.ID] = o.Reason
	}

	page := &domain.TransactionPage{
		Results: make([]domain.Transaction, 0, len(rows)),
		Total:   total,
		Page:    req.Skip/req.Limit + 1,
		Pages:   int((total + int64(req.Limit) - 1) / int64(req.Limit)),
	}
	for _, row := range rows {
		record := adapters.MapStoreRecordToDomain(row)
		reason, isOutlier := reasons[record.ID]
		page.Results = append(page.Results, domain.Transaction{
			Record:        record,
			IsOutlier:     isOutlier,
			OutlierReason: reason,
		})
	}

	return page, nil
}

func (c *analyticsCatalog) CountRecords(ctx context.Context) (int64, error) {
	return c.records.Count(ctx, nil)
}

func (c *analyticsCatalog) topVendor(ctx context.Context) (domain.TopVendor, error) {
	rows, err := c.records.Aggregate(ctx, store.Pipeline{
		Match: store.Filter{}.NotNull("vendor"),
		Group: &store.GroupStage{
			Keys: []store.GroupKey{{Name: "vendor", Field: "vendor"}},
			Accumulators: []store.Accumulator{
				{Name: "total_amount", Op: store.AccumSum, Field: "total"},
				{Name: "transaction_count", Op: store.AccumCount},
			},
		},
		Sort:  []store.SortField{{Name: "total_amount", Desc: true}},
		Limit: 1,
	})
	if err != nil {
		return domain.TopVendor{}, fmt.Errorf("aggregate top vendor: %w", err)
	}

	if len(rows) == 0 {
		return domain.TopVendor{Name: "Unknown"}, nil
	}
	return domain.TopVendor{
		Name:             rows[0].StringKey("vendor"),
		Amount:           rows[0].Values["total_amount"],
		TransactionCount: int64(rows[0].Values["transaction_count"]),
	}, nil
}

func (c *analyticsCatalog) topDocumentType(ctx context.Context) (domain.TopDocumentType, error) {
	rows, err := c.records.Aggregate(ctx, store.Pipeline{
		Group: &store.GroupStage{
			Keys: []store.GroupKey{{Name: "document_type", Field: "document_type"}},
			Accumulators: []store.Accumulator{
				{Name: "count", Op: store.AccumCount},
				{Name: "total_amount", Op: store.AccumSum, Field: "total"},
			},
		},
		Sort:  []store.SortField{{Name: "count", Desc: true}},
		Limit: 1,
	})
	if err != nil {
		return domain.TopDocumentType{}, fmt.Errorf("aggregate top document type: %w", err)
	}

	if len(rows) == 0 {
		return domain.TopDocumentType{Type: "Unknown"}, nil
	}
	return domain.TopDocumentType{
		Type:   rows[0].StringKey("document_type"),
		Count:  int64(rows[0].Values["count"]),
		Amount: rows[0].Values["total_amount"],
	}, nil
}

// trendMetric maps the trend request's metric column onto a series
// metric. The column names the per-record field; count is the only one
// that is not amount-like.
func trendMetric(metricColumn string) string {
	if metricColumn == "count" {
		return aggregation.MetricCount
	}
	return aggregation.MetricAmount
}

func (c *analyticsCatalog) loadFrame(ctx context.Context) (*stats.Frame, error) {
	rows, err := c.records.Find(ctx, nil, store.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return stats.NewFrame(adapters.MapStoreRecordsToDomain(rows)), nil
}

func (c *analyticsCatalog) recordFilter(documentType, timePeriod string) store.Filter {
	filter := store.Filter{}
	if documentType != "" {
		filter = filter.Eq("document_type", documentType)
	}

	switch timePeriod {
	case "last_30_days":
		filter = filter.Gte("date", c.now().AddDate(0, 0, -30))
	case "last_90_days":
		filter = filter.Gte("date", c.now().AddDate(0, 0, -90))
	case "last_year":
		filter = filter.Gte("date", c.now().AddDate(0, 0, -365))
	}

	return filter
}
