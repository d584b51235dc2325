package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRow is one execution attempt's summary as the server recorded it. The
// progress of an interrupted run is what a caller feeds back as the
// skip-ahead budget when resuming.
type RunRow struct {
	ID         uuid.UUID
	Exercise   string
	StartedAt  time.Time
	FinishedAt *time.Time
	SkipAhead  time.Duration
	Progress   time.Duration
	Completed  bool
	Cancelled  bool
}

// InsertRun records the start of an execution attempt.
func (db *DB) InsertRun(ctx context.Context, row RunRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO runs (id, exercise, started_at, skip_ahead_ms, progress_ms, completed, cancelled)
		 VALUES ($1, $2, $3, $4, $5, false, false)`,
		row.ID, row.Exercise, row.StartedAt, row.SkipAhead.Milliseconds(), row.Progress.Milliseconds())
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// FinishRun records a run's outcome and final progress.
func (db *DB) FinishRun(ctx context.Context, id uuid.UUID, progress time.Duration, completed, cancelled bool) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE runs SET finished_at = now(), progress_ms = $2, completed = $3, cancelled = $4
		 WHERE id = $1`,
		id, progress.Milliseconds(), completed, cancelled)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// RecentRuns retrieves the most recent execution attempts, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]RunRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercise, started_at, finished_at, skip_ahead_ms, progress_ms, completed, cancelled
		 FROM runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		var (
			r                  RunRow
			skipMs, progressMs int64
		)
		if err := rows.Scan(&r.ID, &r.Exercise, &r.StartedAt, &r.FinishedAt,
			&skipMs, &progressMs, &r.Completed, &r.Cancelled); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.SkipAhead = time.Duration(skipMs) * time.Millisecond
		r.Progress = time.Duration(progressMs) * time.Millisecond
		result = append(result, r)
	}
	return result, rows.Err()
}
