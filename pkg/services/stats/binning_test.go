package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
)

func TestEngine_AdaptiveBinning(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	t.Run("counts cover every value", func(t *testing.T) {
		values := make([]float64, 0, 100)
		for i := 0; i < 100; i++ {
			values = append(values, float64(i))
		}

		hist := engine.AdaptiveBinning(values, 20)

		require.Equal(t, domain.StatusOK, hist.Status)
		assert.Equal(t, "freedman_diaconis", hist.Method)
		assert.Equal(t, 100, hist.TotalCount)
		assert.Equal(t, 0.0, hist.MinValue)
		assert.Equal(t, 99.0, hist.MaxValue)

		total := 0
		percentage := 0.0
		for _, bin := range hist.Bins {
			total += bin.Count
			percentage += bin.Percentage
		}
		assert.Equal(t, 100, total)
		assert.InDelta(t, 100.0, percentage, 1e-9)
	})

	t.Run("bin count clamped to max", func(t *testing.T) {
		values := make([]float64, 0, 1000)
		for i := 0; i < 1000; i++ {
			values = append(values, float64(i))
		}

		hist := engine.AdaptiveBinning(values, 8)

		assert.LessOrEqual(t, len(hist.Bins), 8)
		assert.GreaterOrEqual(t, len(hist.Bins), 5)
	})

	t.Run("zero IQR falls back to range-based width", func(t *testing.T) {
		// Most mass on one value keeps Q1 == Q3 while the range stays wide.
		values := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 110}

		hist := engine.AdaptiveBinning(values, 20)

		require.Equal(t, domain.StatusOK, hist.Status)
		assert.InDelta(t, 10.0, hist.BinWidth, 1e-9)
		assert.Equal(t, 10, hist.TotalCount)
	})

	t.Run("identical values widen the range", func(t *testing.T) {
		hist := engine.AdaptiveBinning([]float64{42, 42, 42}, 20)

		require.Equal(t, domain.StatusOK, hist.Status)
		require.NotEmpty(t, hist.Bins)
		assert.Less(t, hist.Bins[0].Min, 42.0)
		assert.Greater(t, hist.Bins[len(hist.Bins)-1].Max, 42.0)

		total := 0
		for _, bin := range hist.Bins {
			total += bin.Count
		}
		assert.Equal(t, 3, total)
	})

	t.Run("maximum value lands in the last bin", func(t *testing.T) {
		hist := engine.AdaptiveBinning([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5)

		last := hist.Bins[len(hist.Bins)-1]
		assert.Greater(t, last.Count, 0)
	})

	t.Run("empty input", func(t *testing.T) {
		hist := engine.AdaptiveBinning(nil, 20)

		assert.Equal(t, domain.StatusEmpty, hist.Status)
		assert.Empty(t, hist.Bins)
	})

	t.Run("small max bins falls back to default", func(t *testing.T) {
		values := make([]float64, 0, 50)
		for i := 0; i < 50; i++ {
			values = append(values, float64(i))
		}

		hist := engine.AdaptiveBinning(values, 2)

		assert.GreaterOrEqual(t, len(hist.Bins), 5)
		assert.LessOrEqual(t, len(hist.Bins), DefaultPolicy().DefaultMaxBins)
	})
}
