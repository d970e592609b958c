package types

import (
	"time"

	"github.com/sprintforge/effort-estimator/internal/engine"
)

// SectorRequest creates or updates an ERP sector under estimation.
type SectorRequest struct {
	Name          string  `json:"name" binding:"required"`
	Mode          string  `json:"mode" binding:"required,oneof=baseline greenfield"`
	AnchorName    string  `json:"anchor_name,omitempty"`
	AnchorIndex   float64 `json:"anchor_index,omitempty"`
	AnchorSprints float64 `json:"anchor_sprints,omitempty"`
	BacklogPoints float64 `json:"backlog_points,omitempty"`
}

// FactorPayload is one weighted complexity factor with its baseline
// and target scores.
type FactorPayload struct {
	Name          string  `json:"name" binding:"required"`
	Weight        float64 `json:"weight" binding:"required"`
	BaselineScore float64 `json:"baseline_score"`
	TargetScore   float64 `json:"target_score"`
}

// FactorsRequest replaces the full factor set of a sector.
type FactorsRequest struct {
	Factors []FactorPayload `json:"factors" binding:"required,min=1,dive"`
}

// StoryRequest adds an anchor story to a greenfield sector.
type StoryRequest struct {
	Name          string  `json:"name" binding:"required"`
	Points        float64 `json:"points" binding:"required,gt=0"`
	EffortSprints float64 `json:"effort_sprints"`
}

// SprintRequest records one sprint of telemetry. Index 0 is a valid
// first sprint; indices only have to stay strictly increasing.
type SprintRequest struct {
	Index      int       `json:"index" binding:"gte=0"`
	Velocity   float64   `json:"velocity"`
	PersonDays float64   `json:"person_days"`
	EndDate    time.Time `json:"end_date"`
}

// WeightedScore is a factor with its raw score, used by the standalone
// complexity endpoint.
type WeightedScore struct {
	Name   string  `json:"name" binding:"required"`
	Weight float64 `json:"weight" binding:"required"`
	Score  float64 `json:"score"`
}

// ComplexityRequest computes a weighted complexity index without
// touching stored sectors.
type ComplexityRequest struct {
	Factors []WeightedScore `json:"factors" binding:"required,min=1,dive"`
}

// ComplexityResponse carries the computed index.
type ComplexityResponse struct {
	Index float64 `json:"index"`
}

// CalibrateResponse is the calibration outcome for a sector.
type CalibrateResponse struct {
	SectorID        string                 `json:"sector_id"`
	SectorName      string                 `json:"sector_name"`
	ComplexityIndex float64                `json:"complexity_index,omitempty"`
	Model           engine.CalibratedModel `json:"model"`
}

// ForecastRequest tunes a single forecast run. Seed fixes the random
// stream for reproducibility; RemainingWork overrides the stored
// scope (complexity units in baseline mode, story points otherwise).
type ForecastRequest struct {
	Trials         int      `json:"trials,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	RemainingWork  *float64 `json:"remaining_work,omitempty"`
	IncludeSamples bool     `json:"include_samples,omitempty"`
}

// ForecastResponse is the Monte-Carlo outcome for a sector.
type ForecastResponse struct {
	SectorID        string                 `json:"sector_id"`
	SectorName      string                 `json:"sector_name"`
	Mode            string                 `json:"mode"`
	ComplexityIndex float64                `json:"complexity_index,omitempty"`
	Model           engine.CalibratedModel `json:"model"`
	RemainingWork   float64                `json:"remaining_work"`
	P50Sprints      float64                `json:"p50_sprints"`
	P80Sprints      float64                `json:"p80_sprints"`
	P50Weeks        float64                `json:"p50_weeks"`
	P80Weeks        float64                `json:"p80_weeks"`
	Trials          int                    `json:"trials"`
	Seed            int64                  `json:"seed"`
	Samples         []float64              `json:"samples,omitempty"`
	SnapshotID      string                 `json:"snapshot_id"`
	CreatedAt       time.Time              `json:"created_at"`
}

// ConversionRequest converts an anchor effort in person-months into
// story points using the sector's recorded delivery history. The
// complexity index defaults to the target-vs-baseline ratio of the
// sector's factor scores.
type ConversionRequest struct {
	EffortPersonMonths float64  `json:"effort_person_months" binding:"required,gt=0"`
	ComplexityIndex    *float64 `json:"complexity_index,omitempty"`
}

// ConversionResponse carries the derived scope figures.
type ConversionResponse struct {
	SectorID          string  `json:"sector_id"`
	SectorName        string  `json:"sector_name"`
	ComplexityIndex   float64 `json:"complexity_index"`
	DaysPerStoryPoint float64 `json:"days_per_story_point"`
	StoryPoints       float64 `json:"story_points"`
}

// VarianceResponse reconciles forecast against recorded sprints.
type VarianceResponse struct {
	SectorID   string                `json:"sector_id"`
	SectorName string                `json:"sector_name"`
	Report     engine.VarianceReport `json:"report"`
}
