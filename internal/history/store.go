package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"subgen/internal/config"
)

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database under the data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin inserts a running row. StartedAt defaults to now.
func (s *Store) Begin(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, transcript_name, audio_name, model, status, blocks, dropped,
            started_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		run.ID,
		nullableString(run.TranscriptName),
		nullableString(run.AudioName),
		nullableString(run.Model),
		StatusRunning,
		formatTime(run.StartedAt),
		now,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Complete marks a run succeeded and stores its SRT.
func (s *Store) Complete(ctx context.Context, id, srt string, blocks, dropped int, finishedAt time.Time) error {
	return s.finish(ctx, id, StatusSucceeded, srt, "", blocks, dropped, finishedAt)
}

// Fail marks a run failed with the user-facing message.
func (s *Store) Fail(ctx context.Context, id, message string, blocks, dropped int, finishedAt time.Time) error {
	return s.finish(ctx, id, StatusFailed, "", message, blocks, dropped, finishedAt)
}

// Cancel marks a still-running run as cancelled.
func (s *Store) Cancel(ctx context.Context, id string, blocks int, finishedAt time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, blocks = ?, finished_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCancelled,
		blocks,
		formatTime(finishedAt),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("cancel run: %w", err)
	}
	return nil
}

func (s *Store) finish(ctx context.Context, id string, status Status, srt, message string, blocks, dropped int, finishedAt time.Time) error {
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, srt = ?, error_message = ?, blocks = ?, dropped = ?,
             finished_at = ?, updated_at = ?
         WHERE id = ?`,
		status,
		nullableString(srt),
		nullableString(message),
		blocks,
		dropped,
		formatTime(finishedAt),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Get fetches a run by ID. A missing run yields (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Latest returns the most recent succeeded run, or nil when none exists.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY started_at DESC LIMIT 1`,
		StatusSucceeded,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// List returns runs newest first. A non-positive limit returns everything.
// The SRT body is omitted; use Get for it.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + listColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanListRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Clear deletes every run and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

// MarkAbandoned fails runs left in the running state by a previous process.
func (s *Store) MarkAbandoned(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ?, updated_at = ?
         WHERE status = ?`,
		StatusFailed,
		AbandonedReason,
		now,
		now,
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}

// Summary counts runs by status.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("run summary: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch status {
		case StatusRunning:
			summary.Running = count
		case StatusSucceeded:
			summary.Succeeded = count
		case StatusFailed:
			summary.Failed = count
		case StatusCancelled:
			summary.Cancelled = count
		}
	}
	return summary, rows.Err()
}
