package aggregation

import (
	"fmt"
	"sort"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
	"github.com/de-tools/ledger-atlas/pkg/models/store"
)

// Grouping semantics per interval token. Unrecognized intervals fall
// back to month; unrecognized metrics fall back to amount.

const (
	IntervalDay     = "day"
	IntervalWeek    = "week"
	IntervalMonth   = "month"
	IntervalQuarter = "quarter"
	IntervalYear    = "year"

	MetricAmount  = "amount"
	MetricCount   = "count"
	MetricAverage = "average"

	movingAvgWindow = 3
)

// subPeriods lists the group key components per interval, finest last.
// Week keys deliberately exclude month: week numbers order within a
// year on their own and must not be mixed with month-based sort keys.
var subPeriods = map[string][]string{
	IntervalDay:     {"year", "month", "day"},
	IntervalWeek:    {"year", "week"},
	IntervalMonth:   {"year", "month"},
	IntervalQuarter: {"year", "quarter"},
	IntervalYear:    {"year"},
}

// NormalizeInterval maps an interval token to a supported one.
func NormalizeInterval(interval string) string {
	if _, ok := subPeriods[interval]; !ok {
		return IntervalMonth
	}
	return interval
}

func NormalizeMetric(metric string) string {
	switch metric {
	case MetricCount, MetricAverage:
		return metric
	default:
		return MetricAmount
	}
}

// GroupKeys builds the composite date group key for an interval.
func GroupKeys(interval string) []store.GroupKey {
	parts := subPeriods[NormalizeInterval(interval)]
	keys := make([]store.GroupKey, 0, len(parts))
	for _, part := range parts {
		keys = append(keys, store.GroupKey{Name: part, Field: "date", DatePart: part})
	}
	return keys
}

// Accumulators returns the standard per-group aggregates the series
// metrics are selected from.
func Accumulators() []store.Accumulator {
	return []store.Accumulator{
		{Name: "total", Op: store.AccumSum, Field: "total"},
		{Name: "count", Op: store.AccumCount},
		{Name: "avg", Op: store.AccumAvg, Field: "total"},
	}
}

// FormatPeriod renders the group key as the interval's period label.
func FormatPeriod(interval string, row store.GroupedRow) string {
	switch NormalizeInterval(interval) {
	case IntervalDay:
		return fmt.Sprintf("%d-%02d-%02d", row.IntKey("year"), row.IntKey("month"), row.IntKey("day"))
	case IntervalWeek:
		return fmt.Sprintf("%d-W%02d", row.IntKey("year"), row.IntKey("week"))
	case IntervalQuarter:
		return fmt.Sprintf("%d-Q%d", row.IntKey("year"), row.IntKey("quarter"))
	case IntervalYear:
		return fmt.Sprintf("%d", row.IntKey("year"))
	default:
		return fmt.Sprintf("%d-%02d", row.IntKey("year"), row.IntKey("month"))
	}
}

// SelectMetric picks the requested metric value out of a grouped row.
func SelectMetric(metric string, row store.GroupedRow) float64 {
	switch NormalizeMetric(metric) {
	case MetricCount:
		return row.Values["count"]
	case MetricAverage:
		return row.Values["avg"]
	default:
		return row.Values["total"]
	}
}

// BuildSeries orders grouped rows ascending by period, formats labels,
// selects the metric and attaches the trailing moving average once the
// series is long enough. Empty input yields an empty series.
func BuildSeries(rows []store.GroupedRow, interval, metric string) []domain.TimeSeriesPoint {
	interval = NormalizeInterval(interval)
	parts := subPeriods[interval]

	sorted := make([]store.GroupedRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		for _, part := range parts {
			a, b := sorted[i].IntKey(part), sorted[j].IntKey(part)
			if a != b {
				return a < b
			}
		}
		return false
	})

	series := make([]domain.TimeSeriesPoint, 0, len(sorted))
	for _, row := range sorted {
		series = append(series, domain.TimeSeriesPoint{
			Period: FormatPeriod(interval, row),
			Value:  SelectMetric(metric, row),
		})
	}

	if len(series) >= movingAvgWindow {
		values := make([]float64, len(series))
		for i, point := range series {
			values[i] = point.Value
		}
		averages := MovingAverage(values, movingAvgWindow)
		for i := range series {
			avg := averages[i]
			series[i].MovingAvg = &avg
		}
	}

	return series
}

// MovingAverage computes a trailing mean with the window shrinking at
// the start of the series: each element averages itself and up to
// window-1 preceding values.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for _, v := range values[start : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-start)
	}
	return out
}
