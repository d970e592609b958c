package database

import (
	"time"

	"github.com/google/uuid"
)

// Sector represents an ERP module under estimation. Baseline-mode
// sectors reference a delivered module with known complexity and
// effort; greenfield sectors start from anchor stories only.
type Sector struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Mode          string    `json:"mode" db:"mode"`
	AnchorName    string    `json:"anchor_name,omitempty" db:"anchor_name"`
	AnchorIndex   float64   `json:"anchor_index,omitempty" db:"anchor_index"`
	AnchorSprints float64   `json:"anchor_sprints,omitempty" db:"anchor_sprints"`
	BacklogPoints float64   `json:"backlog_points,omitempty" db:"backlog_points"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Factor is one weighted complexity dimension of a sector, scored
// against both the historical anchor and the sector being estimated.
type Factor struct {
	ID            string    `json:"id" db:"id"`
	SectorID      string    `json:"sector_id" db:"sector_id"`
	Name          string    `json:"name" db:"name"`
	Weight        float64   `json:"weight" db:"weight"`
	BaselineScore float64   `json:"baseline_score" db:"baseline_score"`
	TargetScore   float64   `json:"target_score" db:"target_score"`
	Position      int       `json:"position" db:"position"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// AnchorStory is a reference story that pins the story-point scale of
// a greenfield sector.
type AnchorStory struct {
	ID            string    `json:"id" db:"id"`
	SectorID      string    `json:"sector_id" db:"sector_id"`
	Name          string    `json:"name" db:"name"`
	Points        float64   `json:"points" db:"points"`
	EffortSprints float64   `json:"effort_sprints" db:"effort_sprints"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// SprintMetric is one sprint of delivery telemetry for a sector.
type SprintMetric struct {
	ID          string    `json:"id" db:"id"`
	SectorID    string    `json:"sector_id" db:"sector_id"`
	SprintIndex int       `json:"sprint_index" db:"sprint_index"`
	Velocity    float64   `json:"velocity" db:"velocity"`
	PersonDays  float64   `json:"person_days" db:"person_days"`
	EndDate     time.Time `json:"end_date,omitempty" db:"end_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// EstimationSnapshot records a forecast run so later runs can be
// compared against it.
type EstimationSnapshot struct {
	ID              string    `json:"id" db:"id"`
	SectorID        string    `json:"sector_id" db:"sector_id"`
	Mode            string    `json:"mode" db:"mode"`
	ComplexityIndex float64   `json:"complexity_index" db:"complexity_index"`
	Throughput      float64   `json:"throughput" db:"throughput"`
	Confidence      float64   `json:"confidence" db:"confidence"`
	ExpectedSprints float64   `json:"expected_sprints" db:"expected_sprints"`
	P50Sprints      float64   `json:"p50_sprints" db:"p50_sprints"`
	P80Sprints      float64   `json:"p80_sprints" db:"p80_sprints"`
	Trials          int       `json:"trials" db:"trials"`
	Seed            int64     `json:"seed" db:"seed"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NewSector creates a new sector with generated ID
func NewSector(name, mode string) *Sector {
	now := time.Now()
	return &Sector{
		ID:        uuid.New().String(),
		Name:      name,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewFactor creates a new factor with generated ID
func NewFactor(sectorID, name string, weight, baselineScore, targetScore float64, position int) *Factor {
	return &Factor{
		ID:            uuid.New().String(),
		SectorID:      sectorID,
		Name:          name,
		Weight:        weight,
		BaselineScore: baselineScore,
		TargetScore:   targetScore,
		Position:      position,
		CreatedAt:     time.Now(),
	}
}

// NewAnchorStory creates a new anchor story with generated ID
func NewAnchorStory(sectorID, name string, points, effortSprints float64) *AnchorStory {
	return &AnchorStory{
		ID:            uuid.New().String(),
		SectorID:      sectorID,
		Name:          name,
		Points:        points,
		EffortSprints: effortSprints,
		CreatedAt:     time.Now(),
	}
}

// NewSprintMetric creates a new sprint metric with generated ID
func NewSprintMetric(sectorID string, sprintIndex int, velocity, personDays float64, endDate time.Time) *SprintMetric {
	return &SprintMetric{
		ID:          uuid.New().String(),
		SectorID:    sectorID,
		SprintIndex: sprintIndex,
		Velocity:    velocity,
		PersonDays:  personDays,
		EndDate:     endDate,
		CreatedAt:   time.Now(),
	}
}

// NewEstimationSnapshot creates a new snapshot with generated ID
func NewEstimationSnapshot(sectorID string) *EstimationSnapshot {
	return &EstimationSnapshot{
		ID:        uuid.New().String(),
		SectorID:  sectorID,
		CreatedAt: time.Now(),
	}
}
