package stats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_DetectOutliers(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	t.Run("extreme value scores highest", func(t *testing.T) {
		totals := make([]float64, 0, 50)
		for i := 0; i < 49; i++ {
			totals = append(totals, 100+float64(i%7))
		}
		totals = append(totals, 50000)
		frame := NewFrame(recordsWithTotals(totals...))

		outliers := engine.DetectOutliers(frame, []string{"total"}, 0.05)

		// ceil(0.05 * 50) = 3 flagged, extreme first.
		require.Len(t, outliers, 3)
		assert.Equal(t, 50000.0, outliers[0].Amount)
		assert.Equal(t, "total", outliers[0].PrimaryFactor)
		assert.Greater(t, outliers[0].OutlierScore, outliers[1].OutlierScore)
		assert.Equal(t, fmt.Sprintf("Unusually high total (%.1f std. dev. from mean)", outliers[0].ZScore),
			outliers[0].Reason)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		frame := NewFrame(recordsWithTotals(1, 2, 3, 4, 5, 6, 7, 8, 9, 1000))

		first := engine.DetectOutliers(frame, []string{"total"}, 0.1)
		second := engine.DetectOutliers(frame, []string{"total"}, 0.1)

		assert.Equal(t, first, second)
	})

	t.Run("flag count follows contamination", func(t *testing.T) {
		frame := NewFrame(recordsWithTotals(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

		outliers := engine.DetectOutliers(frame, []string{"total"}, 0.3)

		assert.Len(t, outliers, 3)
	})

	t.Run("invalid contamination uses the default", func(t *testing.T) {
		frame := NewFrame(recordsWithTotals(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

		outliers := engine.DetectOutliers(frame, []string{"total"}, 0)

		// ceil(0.05 * 10) = 1
		assert.Len(t, outliers, 1)
	})

	t.Run("empty frame returns no outliers", func(t *testing.T) {
		outliers := engine.DetectOutliers(NewFrame(nil), nil, 0.1)

		assert.Empty(t, outliers)
	})

	t.Run("unknown feature returns no outliers", func(t *testing.T) {
		frame := NewFrame(recordsWithTotals(1, 2, 3))

		outliers := engine.DetectOutliers(frame, []string{"discount"}, 0.1)

		assert.Empty(t, outliers)
	})

	t.Run("low z-score reason reads low", func(t *testing.T) {
		totals := make([]float64, 0, 20)
		for i := 0; i < 19; i++ {
			totals = append(totals, 1000)
		}
		totals = append(totals, -5000)
		frame := NewFrame(recordsWithTotals(totals...))

		outliers := engine.DetectOutliers(frame, []string{"total"}, 0.05)

		require.Len(t, outliers, 1)
		assert.Equal(t, -5000.0, outliers[0].Amount)
		assert.Contains(t, outliers[0].Reason, "Unusually low total")
	})
}
