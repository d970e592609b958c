package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

// NewDB creates a new database connection with optimized pooling
func NewDB(dataDir string) (*DB, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "effort_estimator.db")

	// Configure connection string for better performance
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	// Run migrations
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize prepared statements
	if err := database.initPreparedStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		// Sectors are the ERP modules being estimated. Baseline-mode
		// sectors carry their historical anchor inline; greenfield
		// sectors rely on anchor stories and sprint telemetry instead.
		`CREATE TABLE IF NOT EXISTS sectors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			mode TEXT NOT NULL, -- 'baseline' or 'greenfield'
			anchor_name TEXT,
			anchor_index REAL,
			anchor_sprints REAL,
			backlog_points REAL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Weighted complexity factors, scored against the anchor
		// (baseline_score) and the sector being estimated
		// (target_score). Position preserves display order.
		`CREATE TABLE IF NOT EXISTS factors (
			id TEXT PRIMARY KEY,
			sector_id TEXT NOT NULL,
			name TEXT NOT NULL,
			weight REAL NOT NULL,
			baseline_score REAL NOT NULL,
			target_score REAL NOT NULL,
			position INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (sector_id) REFERENCES sectors(id) ON DELETE CASCADE,
			UNIQUE(sector_id, name)
		)`,

		// Reference stories that anchor the greenfield story-point scale
		`CREATE TABLE IF NOT EXISTS anchor_stories (
			id TEXT PRIMARY KEY,
			sector_id TEXT NOT NULL,
			name TEXT NOT NULL,
			points REAL NOT NULL,
			effort_sprints REAL NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (sector_id) REFERENCES sectors(id) ON DELETE CASCADE,
			UNIQUE(sector_id, name)
		)`,

		// Per-sprint telemetry. sprint_index is strictly increasing
		// per sector, enforced at the repository layer.
		`CREATE TABLE IF NOT EXISTS sprint_metrics (
			id TEXT PRIMARY KEY,
			sector_id TEXT NOT NULL,
			sprint_index INTEGER NOT NULL,
			velocity REAL NOT NULL,
			person_days REAL NOT NULL,
			end_date DATETIME,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (sector_id) REFERENCES sectors(id) ON DELETE CASCADE,
			UNIQUE(sector_id, sprint_index)
		)`,

		// Immutable record of every forecast run
		`CREATE TABLE IF NOT EXISTS estimation_snapshots (
			id TEXT PRIMARY KEY,
			sector_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			complexity_index REAL NOT NULL,
			throughput REAL NOT NULL,
			confidence REAL NOT NULL,
			expected_sprints REAL NOT NULL,
			p50_sprints REAL NOT NULL,
			p80_sprints REAL NOT NULL,
			trials INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (sector_id) REFERENCES sectors(id) ON DELETE CASCADE
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_sectors_name ON sectors(name)`,
		`CREATE INDEX IF NOT EXISTS idx_factors_sector ON factors(sector_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_anchor_stories_sector ON anchor_stories(sector_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sprint_metrics_sector ON sprint_metrics(sector_id, sprint_index)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_sector ON estimation_snapshots(sector_id, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements initializes frequently used prepared statements
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"insert_sprint_metric": `INSERT INTO sprint_metrics (id, sector_id, sprint_index, velocity, person_days, end_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,

		"get_sprint_metrics": `SELECT id, sector_id, sprint_index, velocity, person_days, end_date, created_at
			FROM sprint_metrics WHERE sector_id = ? ORDER BY sprint_index ASC`,

		// -1 sentinel when no rows, so a first sprint at index 0 passes
		// the strictly-increasing check.
		"get_last_sprint_index": `SELECT COALESCE(MAX(sprint_index), -1) FROM sprint_metrics WHERE sector_id = ?`,

		"insert_snapshot": `INSERT INTO estimation_snapshots (
			id, sector_id, mode, complexity_index, throughput, confidence,
			expected_sprints, p50_sprints, p80_sprints, trials, seed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		"get_snapshots": `SELECT id, sector_id, mode, complexity_index, throughput, confidence,
			expected_sprints, p50_sprints, p80_sprints, trials, seed, created_at
			FROM estimation_snapshots WHERE sector_id = ? ORDER BY created_at DESC LIMIT ?`,

		"get_sector_by_name": `SELECT id, name, mode, anchor_name, anchor_index, anchor_sprints, backlog_points, created_at, updated_at
			FROM sectors WHERE name = ?`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}

	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
