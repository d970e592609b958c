package engine

import "math"

// WeightTolerance is the floating tolerance applied to the factor
// weight sum check.
const WeightTolerance = 1e-6

// Raw factor scores live on a fixed [0,1] scale; the weighted sum is
// therefore bounded by the same scale.
const (
	ScoreMin = 0.0
	ScoreMax = 1.0
)

// ComputeComplexityIndex returns the weighted sum of the per-factor
// scores. Pure function of its inputs: the same factor set and scores
// always produce the same index, which calibration and forecasting
// rely on for reproducibility.
func ComputeComplexityIndex(factors []Factor, scores map[string]float64) (float64, error) {
	if len(factors) == 0 || len(factors) > MaxFactors {
		return 0, &WeightConfigError{Count: len(factors)}
	}

	sum := 0.0
	for _, f := range factors {
		sum += f.Weight
	}
	if math.Abs(sum-1) > WeightTolerance {
		return 0, &WeightConfigError{Sum: sum, Count: len(factors)}
	}

	index := 0.0
	for _, f := range factors {
		score, ok := scores[f.Name]
		if !ok {
			return 0, &MissingScoreError{Factor: f.Name}
		}
		if score < ScoreMin || score > ScoreMax {
			return 0, &ScoreRangeError{Factor: f.Name, Score: score}
		}
		index += f.Weight * score
	}

	// Guard against float drift at the scale edges.
	return clip(index, ScoreMin, ScoreMax), nil
}

// RelativeComplexityIndex computes how much harder the target module
// is than the baseline it is scored against:
//
//	index = sum(weight * target) / sum(weight * baseline)
//
// An empty factor set or a zero baseline denominator yields the
// neutral index 1.
func RelativeComplexityIndex(factors []ScoredFactor) float64 {
	if len(factors) == 0 {
		return 1
	}
	var target, baseline float64
	for _, f := range factors {
		target += f.Weight * f.TargetScore
		baseline += f.Weight * f.BaselineScore
	}
	if baseline == 0 {
		return 1
	}
	return target / baseline
}
