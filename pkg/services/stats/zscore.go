package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
)

// ZScoreOutliers flags records whose value deviates from the population
// mean by more than threshold standard deviations. A zero standard
// deviation means all values are identical, so nothing is flagged.
func (e *Engine) ZScoreOutliers(frame *Frame, valueField string, threshold float64) *domain.ZScoreReport {
	if valueField == "" {
		valueField = "total"
	}
	if threshold <= 0 {
		threshold = e.policy.DefaultZThreshold
	}

	report := &domain.ZScoreReport{
		Status:    domain.StatusOK,
		Outliers:  []domain.OutlierRecord{},
		Threshold: threshold,
	}

	column, ok := frame.Column(valueField)
	if !ok || frame.Len() == 0 {
		report.Status = domain.StatusEmpty
		return report
	}

	// Restrict to records that actually carry the field.
	values := make([]float64, 0, len(column))
	indices := make([]int, 0, len(column))
	for i, v := range column {
		if !math.IsNaN(v) {
			values = append(values, v)
			indices = append(indices, i)
		}
	}
	if len(values) == 0 {
		report.Status = domain.StatusEmpty
		return report
	}

	mean := stat.Mean(values, nil)
	std := stat.StdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}
	report.Mean = mean
	report.Std = std

	if std == 0 {
		return report
	}

	for k, v := range values {
		z := (v - mean) / std
		if math.Abs(z) <= threshold {
			continue
		}
		record := frame.Record(indices[k])
		report.Outliers = append(report.Outliers, domain.OutlierRecord{
			ID:           record.ID,
			DocumentType: record.DocumentType,
			Vendor:       record.Vendor,
			Amount:       v,
			Date:         record.Date.Format("2006-01-02"),
			ZScore:       z,
			SourceFile:   record.SourceFile,
		})
	}

	sort.SliceStable(report.Outliers, func(i, j int) bool {
		return report.Outliers[i].ZScore > report.Outliers[j].ZScore
	})
	report.Count = len(report.Outliers)

	return report
}
