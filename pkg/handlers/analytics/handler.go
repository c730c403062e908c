package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/ledger-atlas/pkg/adapters"
	"github.com/de-tools/ledger-atlas/pkg/models/api"
	"github.com/de-tools/ledger-atlas/pkg/models/domain"
	"github.com/de-tools/ledger-atlas/pkg/services/catalog"
)

type Handler struct {
	catalog catalog.Service
}

func NewHandler(service catalog.Service) *Handler {
	return &Handler{catalog: service}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.catalog.CountRecords(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, api.Health{Status: "ok", RecordsCount: count})
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.catalog.GetAggregatedMetrics(r.Context(), domain.AggregatedMetricsRequest{
		TimePeriod:   r.URL.Query().Get("time_period"),
		DocumentType: r.URL.Query().Get("document_type"),
		UseCache:     useCache(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, metrics)
}

func (h *Handler) GetTimeSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.catalog.GetTimeSeries(r.Context(), domain.TimeSeriesRequest{
		Metric:       r.URL.Query().Get("metric"),
		Interval:     r.URL.Query().Get("interval"),
		DocumentType: r.URL.Query().Get("document_type"),
		UseCache:     useCache(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, series)
}

// GetOutliers serves both detection strategies: the default ensemble
// variant and the z-score variant selected with method=zscore.
func (h *Handler) GetOutliers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if q.Get("method") == "zscore" {
		report, err := h.catalog.DetectZScoreOutliers(ctx, domain.ZScoreOutlierRequest{
			ValueField: q.Get("value_field"),
			Threshold:  floatParam(q.Get("z_threshold"), 0),
			UseCache:   useCache(r),
		})
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, r, report)
		return
	}

	outliers, err := h.catalog.DetectOutliers(ctx, domain.OutlierRequest{
		Features:      listParam(q.Get("features")),
		Contamination: floatParam(q.Get("contamination"), 0),
		UseCache:      useCache(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, outliers)
}

func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	report, err := h.catalog.DetectTrends(r.Context(), domain.TrendRequest{
		MetricColumn: r.URL.Query().Get("metric_column"),
		DateColumn:   r.URL.Query().Get("date_column"),
		UseCache:     useCache(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, report)
}

func (h *Handler) GetSegments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.catalog.SegmentRecords(r.Context(), domain.SegmentRequest{
		Features:  listParam(q.Get("features")),
		NClusters: intParam(q.Get("n_clusters"), 0),
		UseCache:  useCache(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, report)
}

func (h *Handler) GetHistogram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	histogram, err := h.catalog.GetHistogram(r.Context(), domain.HistogramRequest{
		ValueField: q.Get("value_field"),
		MaxBins:    intParam(q.Get("max_bins"), 0),
		UseCache:   useCache(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, histogram)
}

func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.catalog.GetKPIs(r.Context(), domain.KPIRequest{UseCache: useCache(r)})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, kpis)
}

func (h *Handler) GetVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.catalog.GetVendorStats(r.Context(), domain.VendorStatsRequest{
		Limit:    intParam(r.URL.Query().Get("limit"), 0),
		UseCache: useCache(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, vendors)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := h.catalog.ListTransactions(r.Context(), domain.TransactionsRequest{
		Limit:        intParam(q.Get("limit"), 0),
		Skip:         intParam(q.Get("skip"), 0),
		DocumentType: q.Get("document_type"),
		StartDate:    dateParam(q.Get("start_date")),
		EndDate:      dateParam(q.Get("end_date")),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, adapters.MapTransactionPageDomainToApi(*page))
}

func respondJSON(w http.ResponseWriter, r *http.Request, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().
		Err(err).
		Str("path", r.URL.Path).
		Msg("request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(api.Error{Error: err.Error()})
}

func useCache(r *http.Request) bool {
	return r.URL.Query().Get("use_cache") != "false"
}

func listParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func floatParam(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func dateParam(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
