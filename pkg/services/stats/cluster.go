package stats

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
)

// Segment partitions the records into k clusters with k-means over
// standardized features. Missing values are mean-imputed per feature;
// a zero-variance feature standardizes with divisor 1 so it simply
// never separates clusters. The seed is fixed so repeated calls over
// the same data segment identically.
func (e *Engine) Segment(frame *Frame, features []string, k int) *domain.ClusterReport {
	if k <= 0 {
		k = e.policy.DefaultClusters
	}

	report := &domain.ClusterReport{
		Clusters:     []domain.Cluster{},
		ClusterStats: []domain.ClusterStats{},
		TotalRecords: frame.Len(),
	}

	if frame.Len() == 0 {
		report.Status = domain.StatusEmpty
		return report
	}

	if len(features) == 0 {
		features = frame.DefaultFeatures()
	}
	report.FeaturesUsed = features
	if len(features) == 0 || !frame.HasFeatures(features) || frame.Len() < k {
		report.Status = domain.StatusInsufficientData
		return report
	}

	matrix := frame.matrix(features, meanOfPresent)

	// Standardize each feature before clustering.
	n, dims := len(matrix), len(features)
	means := make([]float64, dims)
	stds := make([]float64, dims)
	column := make([]float64, n)
	for j := 0; j < dims; j++ {
		for i := range matrix {
			column[i] = matrix[i][j]
		}
		means[j] = stat.Mean(column, nil)
		stds[j] = stat.StdDev(column, nil)
		if math.IsNaN(stds[j]) || stds[j] == 0 {
			stds[j] = 1
		}
	}

	standardized := make([][]float64, n)
	for i, row := range matrix {
		z := make([]float64, dims)
		for j := range row {
			z[j] = (row[j] - means[j]) / stds[j]
		}
		standardized[i] = z
	}

	assignments, centers := kMeans(standardized, k, e.policy.KMeansMaxIterations, e.policy.Seed)

	for c := 0; c < k; c++ {
		// Centers come back in standardized space; report them in the
		// original feature space for visualization.
		center := make(map[string]float64, dims)
		for j, feature := range features {
			center[feature] = centers[c][j]*stds[j] + means[j]
		}
		report.Clusters = append(report.Clusters, domain.Cluster{ClusterID: c, Center: center})

		members := make([]int, 0)
		for i, a := range assignments {
			if a == c {
				members = append(members, i)
			}
		}
		if len(members) == 0 {
			continue
		}

		featureStats := make(map[string]domain.FeatureStats, dims)
		characteristics := make([]string, 0)
		for j, feature := range features {
			values := make([]float64, len(members))
			for m, i := range members {
				values[m] = matrix[i][j]
			}
			fs := domain.FeatureStats{
				Mean: stat.Mean(values, nil),
				Min:  minOf(values),
				Max:  maxOf(values),
				Std:  sampleStd(values),
			}
			featureStats[feature] = fs

			globalMean := means[j]
			switch {
			case fs.Mean > globalMean*e.policy.VeryHighRatio:
				characteristics = append(characteristics, fmt.Sprintf("Very high %s", feature))
			case fs.Mean > globalMean*e.policy.HighRatio:
				characteristics = append(characteristics, fmt.Sprintf("High %s", feature))
			case fs.Mean < globalMean*e.policy.VeryLowRatio:
				characteristics = append(characteristics, fmt.Sprintf("Very low %s", feature))
			case fs.Mean < globalMean*e.policy.LowRatio:
				characteristics = append(characteristics, fmt.Sprintf("Low %s", feature))
			}
		}

		percentage := float64(len(members)) / float64(n) * 100
		report.ClusterStats = append(report.ClusterStats, domain.ClusterStats{
			ClusterID:       c,
			Size:            len(members),
			Percentage:      math.Round(percentage*100) / 100,
			Features:        featureStats,
			Characteristics: characteristics,
		})
	}

	report.Status = domain.StatusOK
	return report
}

// kMeans is Lloyd's algorithm with k-means++ seeding and a fixed seed.
func kMeans(points [][]float64, k, maxIterations int, seed int64) ([]int, [][]float64) {
	rng := rand.New(rand.NewSource(seed))
	centers := seedCenters(points, k, rng)
	assignments := make([]int, len(points))

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				if d := squaredDistance(p, center); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		dims := len(points[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			for j, v := range p {
				sums[c][j] += v
			}
		}
		for c := range centers {
			if counts[c] == 0 {
				continue // keep the previous center for empty clusters
			}
			for j := range centers[c] {
				centers[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	return assignments, centers
}

// seedCenters picks initial centers k-means++ style: the first at
// random, the rest weighted by squared distance to the nearest chosen
// center.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, cloneRow(points[rng.Intn(len(points))]))

	for len(centers) < k {
		weights := make([]float64, len(points))
		total := 0.0
		for i, p := range points {
			nearest := math.Inf(1)
			for _, center := range centers {
				if d := squaredDistance(p, center); d < nearest {
					nearest = d
				}
			}
			weights[i] = nearest
			total += nearest
		}

		if total == 0 {
			// All remaining points coincide with a center.
			centers = append(centers, cloneRow(points[rng.Intn(len(points))]))
			continue
		}

		target := rng.Float64() * total
		cumulative := 0.0
		chosen := len(points) - 1
		for i, w := range weights {
			cumulative += w
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centers = append(centers, cloneRow(points[chosen]))
	}

	return centers
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)
	return out
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}
