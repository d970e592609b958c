package engine

import (
	"errors"
	"fmt"
)

// WeightConfigError reports an active factor set whose weights do not
// sum to 1 within WeightTolerance, or an oversized factor set.
type WeightConfigError struct {
	Sum   float64
	Count int
}

func (e *WeightConfigError) Error() string {
	if e.Count > MaxFactors {
		return fmt.Sprintf("invalid weight configuration: %d factors exceeds maximum of %d", e.Count, MaxFactors)
	}
	return fmt.Sprintf("invalid weight configuration: weights sum to %.6f, expected 1", e.Sum)
}

// MissingScoreError reports an active factor with no raw score.
type MissingScoreError struct {
	Factor string
}

func (e *MissingScoreError) Error() string {
	return fmt.Sprintf("missing score for factor %q", e.Factor)
}

// ScoreRangeError reports a raw score outside the declared scale.
type ScoreRangeError struct {
	Factor string
	Score  float64
}

func (e *ScoreRangeError) Error() string {
	return fmt.Sprintf("score %.4f for factor %q outside scale [%g, %g]", e.Score, e.Factor, ScoreMin, ScoreMax)
}

// InsufficientDataError reports that the mode-specific minimum inputs
// for calibration are absent. This is an expected, recoverable
// condition: callers should surface it as "not enough data yet".
type InsufficientDataError struct {
	Mode   Mode
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient calibration data (%s): %s", e.Mode, e.Reason)
}

// SprintOrderError reports a sprint metric sequence whose indices are
// not strictly increasing or whose velocity is negative.
type SprintOrderError struct {
	Index    int
	Previous int
	Velocity float64
}

func (e *SprintOrderError) Error() string {
	if e.Velocity < 0 {
		return fmt.Sprintf("sprint %d has negative velocity %.4f", e.Index, e.Velocity)
	}
	return fmt.Sprintf("sprint index %d does not follow %d", e.Index, e.Previous)
}

// TrialCountError reports a non-positive Monte-Carlo trial count.
type TrialCountError struct {
	Trials int
}

func (e *TrialCountError) Error() string {
	return fmt.Sprintf("invalid trial count %d", e.Trials)
}

// DegenerateModelError reports a calibrated model whose mean
// throughput cannot drive a simulation.
type DegenerateModelError struct {
	Throughput float64
}

func (e *DegenerateModelError) Error() string {
	return fmt.Sprintf("degenerate model: mean throughput %.6f must be positive", e.Throughput)
}

// ErrNoSprintData is returned by Compare when no actual sprint metrics
// exist: there is no report, as opposed to an on-track report.
var ErrNoSprintData = errors.New("no sprint data to compare against")

// ErrNilRNG is returned by Simulate when no generator is injected.
// Reproducibility requires an explicit, caller-owned source.
var ErrNilRNG = errors.New("simulate requires an explicit random generator")
