package stats

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
)

const forecastPeriods = 3

var periodLayouts = []string{"2006-01-02", "2006-01", "2006"}

// DetectTrend fits an ordinary least squares line through the series and
// classifies its direction. The time axis is the parsed date ordinal
// when every period label is date-like, otherwise the sequence index.
// The forecast extrapolates the fitted line over the next three
// positions, floored at zero since the metrics are monetary.
func (e *Engine) DetectTrend(series []domain.TimeSeriesPoint) *domain.TrendReport {
	if len(series) == 0 {
		return domain.NeutralTrend(domain.StatusEmpty)
	}
	if len(series) < 2 {
		return domain.NeutralTrend(domain.StatusInsufficientData)
	}

	xs := periodOrdinals(series)
	ys := make([]float64, len(series))
	for i, p := range series {
		ys[i] = p.Value
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return domain.NeutralTrend(domain.StatusInsufficientData)
	}

	r2 := stat.RSquared(xs, ys, nil, intercept, slope)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		r2 = 0
	}

	report := &domain.TrendReport{
		Status:     domain.StatusOK,
		Slope:      slope,
		Intercept:  intercept,
		RSquared:   r2,
		Confidence: clamp(r2, 0, 1),
		Forecast:   make([]domain.ForecastPoint, 0, forecastPeriods),
	}

	switch {
	case math.Abs(slope) < e.policy.SlopeNeutralEpsilon:
		report.Direction = domain.TrendNeutral
		report.Strength = 0
	case slope > 0:
		report.Direction = domain.TrendIncreasing
		report.Strength = math.Min(1, math.Abs(slope)*e.policy.SlopeStrengthScale)
	default:
		report.Direction = domain.TrendDecreasing
		report.Strength = math.Min(1, math.Abs(slope)*e.policy.SlopeStrengthScale)
	}

	last := xs[len(xs)-1]
	for i := 1; i <= forecastPeriods; i++ {
		predicted := intercept + slope*(last+float64(i))
		if predicted < 0 {
			predicted = 0
		}
		report.Forecast = append(report.Forecast, domain.ForecastPoint{
			PeriodIndex: i,
			Value:       predicted,
		})
	}

	return report
}

// periodOrdinals converts period labels to a numeric axis. All labels
// must parse as dates to use the date ordinal; one failure falls the
// whole series back to indices so the axis stays consistent.
func periodOrdinals(series []domain.TimeSeriesPoint) []float64 {
	xs := make([]float64, len(series))
	for i, p := range series {
		t, ok := parsePeriod(p.Period)
		if !ok {
			for j := range series {
				xs[j] = float64(j)
			}
			return xs
		}
		xs[i] = float64(t.Unix() / 86400)
	}
	return xs
}

func parsePeriod(label string) (time.Time, bool) {
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
