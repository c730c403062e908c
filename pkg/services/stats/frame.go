package stats

import (
	"math"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
)

// candidateFeatures is the default feature set for outlier detection and
// segmentation: whatever of these the data actually carries.
var candidateFeatures = []string{"total", "amount", "unit_price", "quantity"}

// Frame is a tabular projection of records restricted to their numeric
// fields. Missing values are represented as NaN until a procedure
// decides its imputation policy.
type Frame struct {
	records []domain.Record
	columns map[string][]float64
}

func NewFrame(records []domain.Record) *Frame {
	f := &Frame{
		records: records,
		columns: make(map[string][]float64, len(domain.NumericFields)),
	}

	for _, field := range domain.NumericFields {
		present := false
		values := make([]float64, len(records))
		for i, r := range records {
			v, ok := r.NumericValue(field)
			if ok {
				present = true
				values[i] = v
			} else {
				values[i] = math.NaN()
			}
		}
		if present {
			f.columns[field] = values
		}
	}

	return f
}

func (f *Frame) Len() int {
	return len(f.records)
}

func (f *Frame) Record(i int) domain.Record {
	return f.records[i]
}

// Column returns the raw values of a numeric column, NaN where missing.
func (f *Frame) Column(name string) ([]float64, bool) {
	values, ok := f.columns[name]
	return values, ok
}

// DefaultFeatures intersects the candidate feature list with the columns
// this frame actually has.
func (f *Frame) DefaultFeatures() []string {
	features := make([]string, 0, len(candidateFeatures))
	for _, name := range candidateFeatures {
		if _, ok := f.columns[name]; ok {
			features = append(features, name)
		}
	}
	return features
}

// HasFeatures reports whether every requested feature is a column of
// this frame.
func (f *Frame) HasFeatures(features []string) bool {
	for _, name := range features {
		if _, ok := f.columns[name]; !ok {
			return false
		}
	}
	return true
}

// matrix materializes the feature columns row-major, applying impute to
// missing values per feature.
func (f *Frame) matrix(features []string, impute func(values []float64) float64) [][]float64 {
	fill := make([]float64, len(features))
	cols := make([][]float64, len(features))
	for j, name := range features {
		cols[j] = f.columns[name]
		if impute != nil {
			fill[j] = impute(cols[j])
		}
	}

	rows := make([][]float64, f.Len())
	for i := range rows {
		row := make([]float64, len(features))
		for j := range features {
			v := cols[j][i]
			if math.IsNaN(v) {
				v = fill[j]
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows
}

// meanOfPresent averages the non-missing values of a column; all-missing
// columns impute as 0.
func meanOfPresent(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
