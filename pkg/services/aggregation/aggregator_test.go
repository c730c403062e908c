package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ledger-atlas/pkg/models/store"
)

func monthRow(year, month int, total, count, avg float64) store.GroupedRow {
	return store.GroupedRow{
		Keys:   map[string]any{"year": year, "month": month},
		Values: map[string]float64{"total": total, "count": count, "avg": avg},
	}
}

func TestNormalizeInterval(t *testing.T) {
	assert.Equal(t, IntervalWeek, NormalizeInterval("week"))
	assert.Equal(t, IntervalMonth, NormalizeInterval("fortnight"))
	assert.Equal(t, IntervalMonth, NormalizeInterval(""))
}

func TestNormalizeMetric(t *testing.T) {
	assert.Equal(t, MetricCount, NormalizeMetric("count"))
	assert.Equal(t, MetricAmount, NormalizeMetric("median"))
	assert.Equal(t, MetricAmount, NormalizeMetric(""))
}

func TestGroupKeys(t *testing.T) {
	t.Run("day has full calendar key", func(t *testing.T) {
		keys := GroupKeys(IntervalDay)

		require.Len(t, keys, 3)
		assert.Equal(t, "year", keys[0].DatePart)
		assert.Equal(t, "month", keys[1].DatePart)
		assert.Equal(t, "day", keys[2].DatePart)
		for _, key := range keys {
			assert.Equal(t, "date", key.Field)
		}
	})

	t.Run("week omits month", func(t *testing.T) {
		keys := GroupKeys(IntervalWeek)

		require.Len(t, keys, 2)
		assert.Equal(t, "year", keys[0].DatePart)
		assert.Equal(t, "week", keys[1].DatePart)
	})
}

func TestFormatPeriod(t *testing.T) {
	row := store.GroupedRow{Keys: map[string]any{
		"year": 2024, "month": 3, "day": 7, "week": 5, "quarter": 1,
	}}

	assert.Equal(t, "2024-03-07", FormatPeriod(IntervalDay, row))
	assert.Equal(t, "2024-W05", FormatPeriod(IntervalWeek, row))
	assert.Equal(t, "2024-03", FormatPeriod(IntervalMonth, row))
	assert.Equal(t, "2024-Q1", FormatPeriod(IntervalQuarter, row))
	assert.Equal(t, "2024", FormatPeriod(IntervalYear, row))
}

func TestBuildSeries(t *testing.T) {
	t.Run("orders periods ascending across years", func(t *testing.T) {
		rows := []store.GroupedRow{
			monthRow(2024, 2, 300, 3, 100),
			monthRow(2023, 12, 100, 1, 100),
			monthRow(2024, 1, 200, 2, 100),
		}

		series := BuildSeries(rows, IntervalMonth, MetricAmount)

		require.Len(t, series, 3)
		assert.Equal(t, "2023-12", series[0].Period)
		assert.Equal(t, "2024-01", series[1].Period)
		assert.Equal(t, "2024-02", series[2].Period)
		assert.Equal(t, 100.0, series[0].Value)
		assert.Equal(t, 300.0, series[2].Value)
	})

	t.Run("metric selection", func(t *testing.T) {
		rows := []store.GroupedRow{monthRow(2024, 1, 500, 5, 100)}

		assert.Equal(t, 500.0, BuildSeries(rows, IntervalMonth, MetricAmount)[0].Value)
		assert.Equal(t, 5.0, BuildSeries(rows, IntervalMonth, MetricCount)[0].Value)
		assert.Equal(t, 100.0, BuildSeries(rows, IntervalMonth, MetricAverage)[0].Value)
	})

	t.Run("moving average attaches at three points", func(t *testing.T) {
		rows := []store.GroupedRow{
			monthRow(2024, 1, 10, 1, 10),
			monthRow(2024, 2, 20, 1, 20),
			monthRow(2024, 3, 30, 1, 30),
			monthRow(2024, 4, 40, 1, 40),
		}

		series := BuildSeries(rows, IntervalMonth, MetricAmount)

		require.Len(t, series, 4)
		expected := []float64{10, 15, 20, 30}
		for i, want := range expected {
			require.NotNil(t, series[i].MovingAvg)
			assert.InDelta(t, want, *series[i].MovingAvg, 1e-9)
		}
	})

	t.Run("short series has no moving average", func(t *testing.T) {
		rows := []store.GroupedRow{
			monthRow(2024, 1, 10, 1, 10),
			monthRow(2024, 2, 20, 1, 20),
		}

		series := BuildSeries(rows, IntervalMonth, MetricAmount)

		require.Len(t, series, 2)
		assert.Nil(t, series[0].MovingAvg)
		assert.Nil(t, series[1].MovingAvg)
	})

	t.Run("empty input yields empty series", func(t *testing.T) {
		series := BuildSeries(nil, IntervalMonth, MetricAmount)

		assert.Empty(t, series)
	})
}

func TestMovingAverage(t *testing.T) {
	out := MovingAverage([]float64{10, 20, 30, 40}, 3)

	assert.Equal(t, []float64{10, 15, 20, 30}, out)
}
