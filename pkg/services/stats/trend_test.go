package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
)

func monthlySeries(values ...float64) []domain.TimeSeriesPoint {
	labels := []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06"}
	series := make([]domain.TimeSeriesPoint, len(values))
	for i, v := range values {
		series[i] = domain.TimeSeriesPoint{Period: labels[i], Value: v}
	}
	return series
}

func TestEngine_DetectTrend(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	t.Run("increasing series", func(t *testing.T) {
		report := engine.DetectTrend(monthlySeries(100, 200, 300, 400, 500))

		require.Equal(t, domain.StatusOK, report.Status)
		assert.Equal(t, domain.TrendIncreasing, report.Direction)
		assert.Greater(t, report.Slope, 0.0)
		assert.InDelta(t, 1.0, report.RSquared, 1e-9)
		assert.InDelta(t, 1.0, report.Confidence, 1e-9)
	})

	t.Run("decreasing series", func(t *testing.T) {
		report := engine.DetectTrend(monthlySeries(500, 400, 300, 200, 100))

		require.Equal(t, domain.StatusOK, report.Status)
		assert.Equal(t, domain.TrendDecreasing, report.Direction)
		assert.Less(t, report.Slope, 0.0)
	})

	t.Run("flat series is neutral", func(t *testing.T) {
		report := engine.DetectTrend(monthlySeries(250, 250, 250, 250))

		require.Equal(t, domain.StatusOK, report.Status)
		assert.Equal(t, domain.TrendNeutral, report.Direction)
		assert.Equal(t, 0.0, report.Strength)
	})

	t.Run("forecast extends the fit and stays non-negative", func(t *testing.T) {
		report := engine.DetectTrend(monthlySeries(100, 200, 300, 400, 500))

		require.Len(t, report.Forecast, 3)
		assert.Equal(t, 1, report.Forecast[0].PeriodIndex)
		assert.Equal(t, 3, report.Forecast[2].PeriodIndex)
		assert.Greater(t, report.Forecast[1].Value, report.Forecast[0].Value)
		assert.Greater(t, report.Forecast[2].Value, report.Forecast[1].Value)
		for _, fp := range report.Forecast {
			assert.GreaterOrEqual(t, fp.Value, 0.0)
		}
	})

	t.Run("steep decline forecast floors at zero", func(t *testing.T) {
		report := engine.DetectTrend(monthlySeries(300, 150, 10))

		require.Equal(t, domain.StatusOK, report.Status)
		assert.Equal(t, 0.0, report.Forecast[2].Value)
	})

	t.Run("empty series", func(t *testing.T) {
		report := engine.DetectTrend(nil)

		assert.Equal(t, domain.StatusEmpty, report.Status)
		assert.Equal(t, domain.TrendNeutral, report.Direction)
		assert.Empty(t, report.Forecast)
	})

	t.Run("single point is insufficient", func(t *testing.T) {
		report := engine.DetectTrend(monthlySeries(100))

		assert.Equal(t, domain.StatusInsufficientData, report.Status)
		assert.Equal(t, domain.TrendNeutral, report.Direction)
	})

	t.Run("non-date labels fall back to index axis", func(t *testing.T) {
		series := []domain.TimeSeriesPoint{
			{Period: "first", Value: 10},
			{Period: "second", Value: 20},
			{Period: "third", Value: 30},
		}

		report := engine.DetectTrend(series)

		require.Equal(t, domain.StatusOK, report.Status)
		assert.Equal(t, domain.TrendIncreasing, report.Direction)
		assert.InDelta(t, 10.0, report.Slope, 1e-9)
	})
}
