package stats

// Policy gathers the empirical constants of the statistical procedures.
// The slope scaling and the cluster characterization ratios are tuning
// choices carried over from the dashboard's original calibration, not
// derived quantities; keep them configurable.
type Policy struct {
	SlopeNeutralEpsilon float64
	SlopeStrengthScale  float64

	VeryHighRatio float64
	HighRatio     float64
	VeryLowRatio  float64
	LowRatio      float64

	ForestTrees     int
	ForestSubsample int

	KMeansMaxIterations int

	Seed int64

	DefaultContamination float64
	DefaultZThreshold    float64
	DefaultClusters      int
	DefaultMaxBins       int
}

func DefaultPolicy() Policy {
	return Policy{
		SlopeNeutralEpsilon: 0.001,
		SlopeStrengthScale:  10,

		VeryHighRatio: 1.5,
		HighRatio:     1.2,
		VeryLowRatio:  0.5,
		LowRatio:      0.8,

		ForestTrees:     100,
		ForestSubsample: 256,

		KMeansMaxIterations: 100,

		Seed: 42,

		DefaultContamination: 0.05,
		DefaultZThreshold:    2.5,
		DefaultClusters:      3,
		DefaultMaxBins:       20,
	}
}

// Engine implements the statistical procedures over record projections.
// All methods resolve degenerate input into defined neutral results
// instead of returning errors.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}
