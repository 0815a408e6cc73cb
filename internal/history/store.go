package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"showgrab/internal/download"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; old databases must be deleted or cleared.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// RecordRun persists one run summary and its per-job results, returning the
// generated run identifier.
func (s *Store) RecordRun(ctx context.Context, summary download.Summary, dryRun bool) (string, error) {
	runID := uuid.NewString()
	completed, skipped, failed := summary.Counts()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, completed, skipped, failed, dry_run)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		summary.Started.UTC().Format(time.RFC3339Nano),
		summary.Finished.UTC().Format(time.RFC3339Nano),
		completed, skipped, failed,
		boolToInt(dryRun),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, result := range summary.Results {
		errText := ""
		if result.Err != nil {
			errText = result.Err.Error()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_jobs (run_id, item_id, status, title, output_path, error)
             VALUES (?, ?, ?, ?, ?, ?)`,
			runID, result.ID, string(result.Status), result.Title, result.OutputPath, errText,
		)
		if err != nil {
			return "", fmt.Errorf("insert job result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, completed, skipped, failed, dry_run
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                  Run
			startedRaw, finished string
			dryRun               int
		)
		if err := rows.Scan(&run.ID, &startedRaw, &finished, &run.Completed, &run.Skipped, &run.Failed, &dryRun); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Started, _ = time.Parse(time.RFC3339Nano, startedRaw)
		run.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		run.DryRun = dryRun != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunJobs returns the per-job records of one run in insertion order.
func (s *Store) RunJobs(ctx context.Context, runID string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, item_id, status, title, output_path, error
         FROM run_jobs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var rec JobRecord
		if err := rows.Scan(&rec.RunID, &rec.ItemID, &rec.Status, &rec.Title, &rec.OutputPath, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan job record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
