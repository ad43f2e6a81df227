package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Import run statuses
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunCancelled = "cancelled"
	RunFailed    = "failed"
)

// ImportRun is one execution of the import pipeline
type ImportRun struct {
	ID         int64
	RunID      string
	SourcePath string
	SourceSHA1 string
	Status     string
	Total      int
	Imported   int
	Skipped    int
	Failed     int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// BeginRun records the start of an import run
func (s *Store) BeginRun(ctx context.Context, run *ImportRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Status = RunRunning

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (run_id, source_path, source_sha1, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.RunID, run.SourcePath, run.SourceSHA1, run.Status, run.StartedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get import run ID: %w", err)
	}

	return nil
}

// FinishRun stores the final counts and status of an import run
func (s *Store) FinishRun(ctx context.Context, run *ImportRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE import_runs
		SET status = ?, total = ?, imported = ?, skipped = ?, failed = ?,
		    error = ?, finished_at = ?
		WHERE run_id = ?
	`, run.Status, run.Total, run.Imported, run.Skipped, run.Failed,
		run.Error, run.FinishedAt.UnixMilli(), run.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish import run: %w", err)
	}

	return nil
}

// RecentRuns returns the most recent import runs, newest first
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*ImportRun, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+`
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []*ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// LastCompletedRunForHash returns the newest completed run of a source with
// this content hash, or nil if the export was never imported
func (s *Store) LastCompletedRunForHash(ctx context.Context, sha1 string) (*ImportRun, error) {
	row := s.db.QueryRowContext(ctx, selectRun+`
		WHERE source_sha1 = ? AND status = ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, sha1, RunCompleted)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

const selectRun = `
	SELECT id, run_id, source_path, COALESCE(source_sha1, ''), status,
	       total, imported, skipped, failed, COALESCE(error, ''),
	       started_at, finished_at
	FROM import_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*ImportRun, error) {
	run := &ImportRun{}
	var started int64
	var finished sql.NullInt64

	err := row.Scan(
		&run.ID, &run.RunID, &run.SourcePath, &run.SourceSHA1, &run.Status,
		&run.Total, &run.Imported, &run.Skipped, &run.Failed, &run.Error,
		&started, &finished,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import run: %w", err)
	}

	run.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		run.FinishedAt = time.UnixMilli(finished.Int64)
	}

	return run, nil
}
