// Package store archives completed supervision runs to SQLite.
//
// The archive is operator convenience, not a system of record: the run's
// report is built entirely in memory and archiving it is best-effort at
// the end of the run. A failed archive never fails the run.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thermosentry/thermosentry/internal/device"
	"github.com/thermosentry/thermosentry/internal/infrastructure/database"
	"github.com/thermosentry/thermosentry/internal/site"
	"github.com/thermosentry/thermosentry/internal/supervise"
)

// ErrRunNotFound is returned by LoadReport for an unknown run ID.
var ErrRunNotFound = errors.New("store: run not found")

// Store persists run reports.
type Store struct {
	db *database.DB
}

// Open opens (creating if necessary) the archive database and applies
// pending migrations.
func Open(ctx context.Context, cfg database.Config) (*Store, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the archive database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Run is an archived run's summary row.
type Run struct {
	ID         string
	Site       string
	StartedAt  time.Time
	FinishedAt time.Time
	Success    bool
}

// SaveReport archives a completed run report and returns the new run ID.
//
// The run row, its measurements and its zone errors are written in one
// transaction: an archived run is never partially visible.
func (s *Store) SaveReport(ctx context.Context, siteName string, report *site.Report) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, site, started_at, finished_at, success) VALUES (?, ?, ?, ?, ?)`,
		runID,
		siteName,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		report.Success(),
	); err != nil {
		return "", fmt.Errorf("store: inserting run: %w", err)
	}

	for zoneKey, measurements := range report.Results() {
		for _, m := range measurements {
			if err := insertMeasurement(ctx, tx, runID, zoneKey, m); err != nil {
				return "", err
			}
		}
	}

	for zoneKey, zerr := range report.Errors() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO zone_errors (run_id, zone_key, error, failed_at) VALUES (?, ?, ?, ?)`,
			runID, zoneKey, zerr.Message, epochSeconds(zerr.Timestamp),
		); err != nil {
			return "", fmt.Errorf("store: inserting zone error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: committing run: %w", err)
	}
	return runID, nil
}

func insertMeasurement(ctx context.Context, tx *sql.Tx, runID, zoneKey string, m supervise.Measurement) error {
	var humidity any
	if m.Humidity != nil {
		humidity = *m.Humidity
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO measurements (run_id, zone_key, idx, taken_at, temperature, humidity, mode, worker_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, zoneKey, m.Index, epochSeconds(m.Timestamp),
		m.Temperature, humidity, string(m.Mode), m.WorkerID,
	); err != nil {
		return fmt.Errorf("store: inserting measurement: %w", err)
	}
	return nil
}

// ListRuns returns archived run summaries, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site, started_at, finished_at, success
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Site, &started, &finished, &r.Success); err != nil {
			return nil, fmt.Errorf("store: scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)   //nolint:errcheck // Format is controlled
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished) //nolint:errcheck // Format is controlled
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating runs: %w", err)
	}
	return runs, nil
}

// LoadReport rebuilds the report of an archived run.
func (s *Store) LoadReport(ctx context.Context, runID string) (*site.Report, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: querying run: %w", err)
	}

	report := site.NewReport()

	rows, err := s.db.QueryContext(ctx,
		`SELECT zone_key, idx, taken_at, temperature, humidity, mode, worker_id
		 FROM measurements WHERE run_id = ? ORDER BY zone_key, idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: querying measurements: %w", err)
	}
	defer rows.Close()

	byZone := make(map[string][]supervise.Measurement)
	for rows.Next() {
		var (
			zoneKey  string
			m        supervise.Measurement
			takenAt  float64
			humidity sql.NullFloat64
			mode     string
		)
		if err := rows.Scan(&zoneKey, &m.Index, &takenAt, &m.Temperature, &humidity, &mode, &m.WorkerID); err != nil {
			return nil, fmt.Errorf("store: scanning measurement: %w", err)
		}
		m.Timestamp = timeFromEpoch(takenAt)
		m.Mode = device.Mode(mode)
		if humidity.Valid {
			h := humidity.Float64
			m.Humidity = &h
		}
		byZone[zoneKey] = append(byZone[zoneKey], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating measurements: %w", err)
	}
	for zoneKey, ms := range byZone {
		report.SetResult(zoneKey, ms)
	}

	errRows, err := s.db.QueryContext(ctx,
		`SELECT zone_key, error, failed_at FROM zone_errors WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: querying zone errors: %w", err)
	}
	defer errRows.Close()

	for errRows.Next() {
		var (
			zoneKey  string
			message  string
			failedAt float64
		)
		if err := errRows.Scan(&zoneKey, &message, &failedAt); err != nil {
			return nil, fmt.Errorf("store: scanning zone error: %w", err)
		}
		report.SetError(zoneKey, fmt.Errorf("%s", message), timeFromEpoch(failedAt))
	}
	if err := errRows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating zone errors: %w", err)
	}

	return report, nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func timeFromEpoch(s float64) time.Time {
	return time.Unix(0, int64(s*float64(time.Second)))
}
