package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
)

const binMethodFreedmanDiaconis = "freedman_diaconis"

// AdaptiveBinning histograms the values with a Freedman-Diaconis bin
// width, falling back to a tenth of the range when the IQR is zero. The
// bin count is clamped between 5 and maxBins.
func (e *Engine) AdaptiveBinning(values []float64, maxBins int) *domain.Histogram {
	if maxBins < 5 {
		maxBins = e.policy.DefaultMaxBins
	}

	histogram := &domain.Histogram{
		Status: domain.StatusOK,
		Bins:   []domain.HistogramBin{},
		Method: binMethodFreedmanDiaconis,
	}

	n := len(values)
	if n == 0 {
		histogram.Status = domain.StatusEmpty
		return histogram
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[n-1]
	histogram.MinValue = lo
	histogram.MaxValue = hi
	histogram.TotalCount = n

	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q75 - q25

	var width float64
	if iqr == 0 {
		width = (hi - lo) / 10
	} else {
		width = 2 * iqr * math.Pow(float64(n), -1.0/3.0)
	}
	histogram.BinWidth = width

	span := hi - lo
	bins := maxBins
	if width > 0 {
		bins = int(span / width)
	}
	if bins > maxBins {
		bins = maxBins
	}
	if bins < 5 {
		bins = 5
	}

	// A degenerate range still produces a well-defined histogram: widen
	// it symmetrically the way numpy does for identical values.
	if span == 0 {
		lo -= 0.5
		hi += 0.5
		span = 1
	}

	counts := make([]int, bins)
	binSize := span / float64(bins)
	for _, v := range sorted {
		idx := int((v - lo) / binSize)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	for i, count := range counts {
		histogram.Bins = append(histogram.Bins, domain.HistogramBin{
			Bin:        i,
			Min:        lo + float64(i)*binSize,
			Max:        lo + float64(i+1)*binSize,
			Count:      count,
			Percentage: float64(count) / float64(n) * 100,
		})
	}

	return histogram
}
