package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sprintforge/effort-estimator/internal/engine"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateSector inserts a new sector.
func (r *Repository) CreateSector(sector *Sector) error {
	if sector.Mode != string(engine.ModeBaseline) && sector.Mode != string(engine.ModeGreenfield) {
		return fmt.Errorf("unknown sector mode %q", sector.Mode)
	}

	_, err := r.db.Exec(`
		INSERT INTO sectors (id, name, mode, anchor_name, anchor_index, anchor_sprints, backlog_points, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sector.ID, sector.Name, sector.Mode, sector.AnchorName, sector.AnchorIndex, sector.AnchorSprints,
		sector.BacklogPoints, sector.CreatedAt, sector.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create sector: %w", err)
	}

	return nil
}

// GetSector retrieves a sector by ID.
func (r *Repository) GetSector(id string) (*Sector, error) {
	var sector Sector
	err := r.db.QueryRow(`
		SELECT id, name, mode, anchor_name, anchor_index, anchor_sprints, backlog_points, created_at, updated_at
		FROM sectors WHERE id = ?
	`, id).Scan(
		&sector.ID, &sector.Name, &sector.Mode, &sector.AnchorName,
		&sector.AnchorIndex, &sector.AnchorSprints, &sector.BacklogPoints,
		&sector.CreatedAt, &sector.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sector: %w", err)
	}

	return &sector, nil
}

// GetSectorByName retrieves a sector by its unique name.
func (r *Repository) GetSectorByName(name string) (*Sector, error) {
	stmt, err := r.db.GetPreparedStatement("get_sector_by_name")
	if err != nil {
		return nil, err
	}

	var sector Sector
	err = stmt.QueryRow(name).Scan(
		&sector.ID, &sector.Name, &sector.Mode, &sector.AnchorName,
		&sector.AnchorIndex, &sector.AnchorSprints, &sector.BacklogPoints,
		&sector.CreatedAt, &sector.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sector by name: %w", err)
	}

	return &sector, nil
}

// ListSectors returns all sectors ordered by name.
func (r *Repository) ListSectors() ([]*Sector, error) {
	rows, err := r.db.Query(`
		SELECT id, name, mode, anchor_name, anchor_index, anchor_sprints, backlog_points, created_at, updated_at
		FROM sectors ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	defer rows.Close()

	var sectors []*Sector
	for rows.Next() {
		var sector Sector
		if err := rows.Scan(
			&sector.ID, &sector.Name, &sector.Mode, &sector.AnchorName,
			&sector.AnchorIndex, &sector.AnchorSprints, &sector.BacklogPoints,
			&sector.CreatedAt, &sector.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, &sector)
	}

	return sectors, rows.Err()
}

// UpdateSectorAnchor updates the historical anchor of a baseline sector.
func (r *Repository) UpdateSectorAnchor(id, anchorName string, anchorIndex, anchorSprints float64) error {
	result, err := r.db.Exec(`
		UPDATE sectors SET anchor_name = ?, anchor_index = ?, anchor_sprints = ?, updated_at = ?
		WHERE id = ?
	`, anchorName, anchorIndex, anchorSprints, time.Now(), id)

	if err != nil {
		return fmt.Errorf("failed to update sector anchor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateSectorBacklog updates the estimated backlog of a greenfield
// sector, in story points.
func (r *Repository) UpdateSectorBacklog(id string, backlogPoints float64) error {
	result, err := r.db.Exec(`
		UPDATE sectors SET backlog_points = ?, updated_at = ? WHERE id = ?
	`, backlogPoints, time.Now(), id)

	if err != nil {
		return fmt.Errorf("failed to update sector backlog: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteSector removes a sector and, via cascade, its factors,
// stories, metrics and snapshots.
func (r *Repository) DeleteSector(id string) error {
	result, err := r.db.Exec(`DELETE FROM sectors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sector: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ReplaceFactors atomically swaps the factor set of a sector. Factors
// are always written as a full set so weight validation sees the
// whole configuration.
func (r *Repository) ReplaceFactors(sectorID string, factors []*Factor) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM factors WHERE sector_id = ?`, sectorID); err != nil {
		return fmt.Errorf("failed to clear factors: %w", err)
	}

	for _, factor := range factors {
		_, err := tx.Exec(`
			INSERT INTO factors (id, sector_id, name, weight, baseline_score, target_score, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, factor.ID, sectorID, factor.Name, factor.Weight, factor.BaselineScore,
			factor.TargetScore, factor.Position, factor.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert factor %s: %w", factor.Name, err)
		}
	}

	return tx.Commit()
}

// ListFactors returns a sector's factors in display order.
func (r *Repository) ListFactors(sectorID string) ([]*Factor, error) {
	rows, err := r.db.Query(`
		SELECT id, sector_id, name, weight, baseline_score, target_score, position, created_at
		FROM factors WHERE sector_id = ? ORDER BY position ASC
	`, sectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list factors: %w", err)
	}
	defer rows.Close()

	var factors []*Factor
	for rows.Next() {
		var factor Factor
		if err := rows.Scan(
			&factor.ID, &factor.SectorID, &factor.Name, &factor.Weight,
			&factor.BaselineScore, &factor.TargetScore, &factor.Position, &factor.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan factor: %w", err)
		}
		factors = append(factors, &factor)
	}

	return factors, rows.Err()
}

// AddAnchorStory inserts a reference story for a greenfield sector.
func (r *Repository) AddAnchorStory(story *AnchorStory) error {
	if story.Points <= 0 {
		return fmt.Errorf("anchor story points must be positive, got %g", story.Points)
	}

	_, err := r.db.Exec(`
		INSERT INTO anchor_stories (id, sector_id, name, points, effort_sprints, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, story.ID, story.SectorID, story.Name, story.Points, story.EffortSprints, story.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to add anchor story: %w", err)
	}

	return nil
}

// ListAnchorStories returns a sector's anchor stories.
func (r *Repository) ListAnchorStories(sectorID string) ([]*AnchorStory, error) {
	rows, err := r.db.Query(`
		SELECT id, sector_id, name, points, effort_sprints, created_at
		FROM anchor_stories WHERE sector_id = ? ORDER BY points ASC
	`, sectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list anchor stories: %w", err)
	}
	defer rows.Close()

	var stories []*AnchorStory
	for rows.Next() {
		var story AnchorStory
		if err := rows.Scan(
			&story.ID, &story.SectorID, &story.Name, &story.Points,
			&story.EffortSprints, &story.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan anchor story: %w", err)
		}
		stories = append(stories, &story)
	}

	return stories, rows.Err()
}

// AddSprintMetric appends one sprint of telemetry. The sprint index
// must be strictly greater than anything already recorded for the
// sector, and velocity cannot be negative; history is append-only.
func (r *Repository) AddSprintMetric(metric *SprintMetric) error {
	if metric.Velocity < 0 {
		return &engine.SprintOrderError{Index: metric.SprintIndex, Velocity: metric.Velocity}
	}
	if metric.SprintIndex < 0 {
		return &engine.SprintOrderError{Index: metric.SprintIndex, Previous: -1}
	}

	lastStmt, err := r.db.GetPreparedStatement("get_last_sprint_index")
	if err != nil {
		return err
	}

	var lastIndex int
	if err := lastStmt.QueryRow(metric.SectorID).Scan(&lastIndex); err != nil {
		return fmt.Errorf("failed to read last sprint index: %w", err)
	}

	if metric.SprintIndex <= lastIndex {
		return &engine.SprintOrderError{Index: metric.SprintIndex, Previous: lastIndex}
	}

	insertStmt, err := r.db.GetPreparedStatement("insert_sprint_metric")
	if err != nil {
		return err
	}

	_, err = insertStmt.Exec(
		metric.ID, metric.SectorID, metric.SprintIndex,
		metric.Velocity, metric.PersonDays, metric.EndDate, metric.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add sprint metric: %w", err)
	}

	return nil
}

// ListSprintMetrics returns a sector's telemetry ordered by sprint index.
func (r *Repository) ListSprintMetrics(sectorID string) ([]*SprintMetric, error) {
	stmt, err := r.db.GetPreparedStatement("get_sprint_metrics")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(sectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprint metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*SprintMetric
	for rows.Next() {
		var metric SprintMetric
		if err := rows.Scan(
			&metric.ID, &metric.SectorID, &metric.SprintIndex,
			&metric.Velocity, &metric.PersonDays, &metric.EndDate, &metric.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sprint metric: %w", err)
		}
		metrics = append(metrics, &metric)
	}

	return metrics, rows.Err()
}

// SaveSnapshot persists a forecast run.
func (r *Repository) SaveSnapshot(snapshot *EstimationSnapshot) error {
	stmt, err := r.db.GetPreparedStatement("insert_snapshot")
	if err != nil {
		return err
	}

	_, err = stmt.Exec(
		snapshot.ID, snapshot.SectorID, snapshot.Mode, snapshot.ComplexityIndex,
		snapshot.Throughput, snapshot.Confidence, snapshot.ExpectedSprints,
		snapshot.P50Sprints, snapshot.P80Sprints, snapshot.Trials, snapshot.Seed,
		snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// ListSnapshots returns the most recent forecast snapshots for a sector.
func (r *Repository) ListSnapshots(sectorID string, limit int) ([]*EstimationSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	stmt, err := r.db.GetPreparedStatement("get_snapshots")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(sectorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*EstimationSnapshot
	for rows.Next() {
		var snapshot EstimationSnapshot
		if err := rows.Scan(
			&snapshot.ID, &snapshot.SectorID, &snapshot.Mode, &snapshot.ComplexityIndex,
			&snapshot.Throughput, &snapshot.Confidence, &snapshot.ExpectedSprints,
			&snapshot.P50Sprints, &snapshot.P80Sprints, &snapshot.Trials, &snapshot.Seed,
			&snapshot.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snapshot)
	}

	return snapshots, rows.Err()
}
