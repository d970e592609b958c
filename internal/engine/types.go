package engine

import "time"

// Mode selects the calibration path for a project.
type Mode string

const (
	ModeBaseline   Mode = "baseline"
	ModeGreenfield Mode = "greenfield"
)

// MaxFactors caps the active complexity factor set per project.
const MaxFactors = 5

// Factor is one weighted complexity dimension. Weights across the
// active set must sum to 1 within WeightTolerance.
type Factor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// ScoredFactor carries the baseline/target score pair used by the
// relative complexity index in baseline flows.
type ScoredFactor struct {
	Name          string  `json:"name"`
	Weight        float64 `json:"weight"`
	BaselineScore float64 `json:"baseline_score"`
	TargetScore   float64 `json:"target_score"`
}

// Sector is a previously delivered module used as the baseline anchor.
// ComplexityIndex and EffortSprints describe what it actually took.
type Sector struct {
	Name            string  `json:"name"`
	ComplexityIndex float64 `json:"complexity_index"`
	EffortSprints   float64 `json:"effort_sprints"`
}

// AnchorStory is an internally curated reference unit of work used to
// ground greenfield estimates when no delivered sector exists.
type AnchorStory struct {
	Name          string  `json:"name"`
	Points        float64 `json:"points"`
	EffortSprints float64 `json:"effort_sprints"`
}

// SprintMetric is one observed sprint. Index values are strictly
// increasing per project; Velocity is story points completed.
type SprintMetric struct {
	Index      int       `json:"index"`
	Velocity   float64   `json:"velocity"`
	PersonDays float64   `json:"person_days,omitempty"`
	EndDate    time.Time `json:"end_date,omitempty"`
}

// Project is the immutable input snapshot handed to the engine. Mode
// determines which anchor fields are consulted during calibration.
type Project struct {
	Mode    Mode               `json:"mode"`
	Factors []Factor           `json:"factors"`
	Scores  map[string]float64 `json:"scores"`
	Sector  *Sector            `json:"sector,omitempty"`
	Stories []AnchorStory      `json:"stories,omitempty"`
	Sprints []SprintMetric     `json:"sprints,omitempty"`
}

// CalibratedModel is the throughput model produced by Calibrate. It is
// a value: recomputed wholesale on every input change, never mutated.
type CalibratedModel struct {
	Mode            Mode    `json:"mode"`
	Throughput      float64 `json:"throughput"` // work units per sprint
	StdDev          float64 `json:"std_dev"`
	Confidence      float64 `json:"confidence"`
	LowSample       bool    `json:"low_sample"`
	ExpectedSprints float64 `json:"expected_sprints,omitempty"` // baseline scaling estimate
	StoryPointScale float64 `json:"story_point_scale,omitempty"`
}

// ForecastResult holds the Monte-Carlo outcome. Samples are whole
// sprint counts in trial-index order; P50/P80 are extracted from a
// sorted copy so trial ordering never affects the percentiles.
type ForecastResult struct {
	P50     float64   `json:"p50_sprints"`
	P80     float64   `json:"p80_sprints"`
	Samples []float64 `json:"samples"`
}

// TrendDirection summarises whether the plan-vs-actual gap is closing.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDegrading TrendDirection = "degrading"
	TrendStable    TrendDirection = "stable"
)

// VarianceReport reconciles forecast progress against recorded sprints.
// Deltas are signed cumulative differences, positive = ahead of plan.
type VarianceReport struct {
	Deltas      []float64      `json:"deltas"`
	MedianDelta float64        `json:"median_delta"`
	TrendSlope  float64        `json:"trend_slope"`
	Direction   TrendDirection `json:"direction"`
	Sprints     int            `json:"sprints"`
}

// Interpolation fixes the percentile extraction rule for a forecast.
type Interpolation string

const (
	InterpNearestRank Interpolation = "nearest-rank"
	InterpLinear      Interpolation = "linear"
)

// CalibrationConfig tunes the calibration paths.
type CalibrationConfig struct {
	MinSprints           int     // greenfield minimum sprint count
	UncertaintyInflation float64 // stddev multiplier for small samples
	DefaultUncertainty   float64 // relative band when no sprints exist
	DecayTau             float64 // recency decay constant, in sprints
}

// DefaultCalibrationConfig returns the defaults used by the service
// when nothing is configured.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		MinSprints:           3,
		UncertaintyInflation: 1.5,
		DefaultUncertainty:   0.25,
		DecayTau:             3,
	}
}

// SimulationConfig tunes the Monte-Carlo forecaster.
type SimulationConfig struct {
	Trials        int
	Interpolation Interpolation
}

// DefaultSimulationConfig returns the default simulation settings.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Trials:        2000,
		Interpolation: InterpNearestRank,
	}
}
