package stats

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
)

// DetectOutliers runs the ensemble variant: an isolation forest over the
// selected features, with the expected outlier fraction given by
// contamination. Flagged records are attributed to the feature with the
// largest absolute z-score and sorted by anomaly score descending.
func (e *Engine) DetectOutliers(frame *Frame, features []string, contamination float64) []domain.OutlierRecord {
	out := []domain.OutlierRecord{}
	if frame.Len() == 0 {
		return out
	}

	if len(features) == 0 {
		features = frame.DefaultFeatures()
	}
	if len(features) == 0 || !frame.HasFeatures(features) {
		return out
	}

	if contamination <= 0 || contamination >= 1 {
		contamination = e.policy.DefaultContamination
	}

	// Missing feature values are imputed as 0 for this procedure.
	matrix := frame.matrix(features, func([]float64) float64 { return 0 })

	forest := fitIsolationForest(matrix, e.policy.ForestTrees, e.policy.ForestSubsample, e.policy.Seed)
	scores := make([]float64, len(matrix))
	for i, row := range matrix {
		scores[i] = forest.score(row)
	}

	n := len(matrix)
	flagged := int(math.Ceil(contamination * float64(n)))
	if flagged > n {
		flagged = n
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	// Population statistics per feature, over the imputed values.
	means := make([]float64, len(features))
	stds := make([]float64, len(features))
	for j := range features {
		column := make([]float64, n)
		for i := range matrix {
			column[i] = matrix[i][j]
		}
		means[j] = stat.Mean(column, nil)
		stds[j] = stat.StdDev(column, nil)
		if math.IsNaN(stds[j]) {
			stds[j] = 0
		}
	}

	for _, idx := range order[:flagged] {
		primary, maxZ := features[0], 0.0
		for j, feature := range features {
			z := 0.0
			if stds[j] > 0 {
				z = (matrix[idx][j] - means[j]) / stds[j]
			}
			if math.Abs(z) > math.Abs(maxZ) || j == 0 {
				primary, maxZ = feature, z
			}
		}

		direction := "high"
		if maxZ < 0 {
			direction = "low"
		}

		record := frame.Record(idx)
		out = append(out, domain.OutlierRecord{
			ID:            record.ID,
			DocumentType:  record.DocumentType,
			Vendor:        record.Vendor,
			Amount:        record.Total,
			Date:          record.Date.Format("2006-01-02"),
			OutlierScore:  scores[idx],
			PrimaryFactor: primary,
			ZScore:        maxZ,
			Reason: fmt.Sprintf("Unusually %s %s (%.1f std. dev. from mean)",
				direction, primary, math.Abs(maxZ)),
			SourceFile: record.SourceFile,
		})
	}

	return out
}

// Isolation forest after Liu et al.: anomalies isolate in fewer random
// splits, so short average path lengths map to scores near 1.

type isoForest struct {
	trees     []*isoNode
	subsample int
}

type isoNode struct {
	feature     int
	split       float64
	left, right *isoNode
	size        int
}

func fitIsolationForest(matrix [][]float64, trees, subsample int, seed int64) *isoForest {
	n := len(matrix)
	if subsample > n {
		subsample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(subsample) + 1)))

	rng := rand.New(rand.NewSource(seed))
	forest := &isoForest{subsample: subsample}
	for t := 0; t < trees; t++ {
		sample := rng.Perm(n)[:subsample]
		forest.trees = append(forest.trees, buildIsoTree(matrix, sample, 0, maxDepth, rng))
	}
	return forest
}

func buildIsoTree(matrix [][]float64, indices []int, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(indices) <= 1 {
		return &isoNode{feature: -1, size: len(indices)}
	}

	dims := len(matrix[0])
	splittable := make([]int, 0, dims)
	for j := 0; j < dims; j++ {
		lo, hi := matrix[indices[0]][j], matrix[indices[0]][j]
		for _, i := range indices[1:] {
			if matrix[i][j] < lo {
				lo = matrix[i][j]
			}
			if matrix[i][j] > hi {
				hi = matrix[i][j]
			}
		}
		if hi > lo {
			splittable = append(splittable, j)
		}
	}
	if len(splittable) == 0 {
		return &isoNode{feature: -1, size: len(indices)}
	}

	feature := splittable[rng.Intn(len(splittable))]
	lo, hi := matrix[indices[0]][feature], matrix[indices[0]][feature]
	for _, i := range indices[1:] {
		if matrix[i][feature] < lo {
			lo = matrix[i][feature]
		}
		if matrix[i][feature] > hi {
			hi = matrix[i][feature]
		}
	}
	split := lo + rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range indices {
		if matrix[i][feature] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &isoNode{
		feature: feature,
		split:   split,
		left:    buildIsoTree(matrix, left, depth+1, maxDepth, rng),
		right:   buildIsoTree(matrix, right, depth+1, maxDepth, rng),
		size:    len(indices),
	}
}

func (f *isoForest) score(row []float64) float64 {
	total := 0.0
	for _, tree := range f.trees {
		total += pathLength(row, tree, 0)
	}
	avg := total / float64(len(f.trees))

	norm := avgPathLength(f.subsample)
	if norm == 0 {
		return 0
	}
	return math.Pow(2, -avg/norm)
}

func pathLength(row []float64, node *isoNode, depth float64) float64 {
	if node.feature < 0 {
		return depth + avgPathLength(node.size)
	}
	if row[node.feature] < node.split {
		return pathLength(row, node.left, depth+1)
	}
	return pathLength(row, node.right, depth+1)
}

const eulerMascheroni = 0.5772156649

// avgPathLength is the expected path length of an unsuccessful BST
// search over n points, the normalization constant of the forest.
func avgPathLength(n int) float64 {
	switch {
	case n > 2:
		h := math.Log(float64(n-1)) + eulerMascheroni
		return 2*h - 2*float64(n-1)/float64(n)
	case n == 2:
		return 1
	default:
		return 0
	}
}
