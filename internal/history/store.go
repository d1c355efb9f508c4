package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"subrover/internal/config"
)

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database under the state
// directory and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "history.db"))
}

// OpenPath opens the history database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginRun inserts a new run in the running state and returns it.
func (s *Store) BeginRun(ctx context.Context, root string, languages []string, total int) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Root:      root,
		Languages: append([]string(nil), languages...),
		Status:    RunRunning,
		Total:     total,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, root, languages, status, total, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Root,
		joinLanguages(run.Languages),
		run.Status,
		run.Total,
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun records the terminal status and counters for a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, completed, failed int) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, completed = ?, failed = ?, finished_at = ? WHERE id = ?`,
		status,
		completed,
		failed,
		time.Now().UTC().Format(time.RFC3339Nano),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// RecordTask stores the terminal outcome of one task.
func (s *Store) RecordTask(ctx context.Context, record TaskRecord) error {
	attempts := record.Attempts
	if attempts < 1 {
		attempts = 1
	}
	finished := record.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO run_tasks (run_id, path, languages, state, detail, attempts, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.Path,
		joinLanguages(record.Languages),
		record.State,
		nullableString(record.Detail),
		attempts,
		finished.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record task: %w", err)
	}
	return nil
}

// RunByID fetches a run, or nil when none exists.
func (s *Store) RunByID(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// LastRun returns the most recently started run, or nil when the history is empty.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	return run, nil
}

// RecentRuns lists runs newest-first, at most limit entries.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TasksForRun lists task outcomes for one run in insertion order.
func (s *Store) TasksForRun(ctx context.Context, runID string) ([]*TaskRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, path, languages, state, detail, attempts, finished_at
         FROM run_tasks WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("tasks for run: %w", err)
	}
	defer rows.Close()

	var records []*TaskRecord
	for rows.Next() {
		var (
			record      TaskRecord
			languages   string
			detail      sql.NullString
			finishedRaw string
		)
		if err := rows.Scan(&record.ID, &record.RunID, &record.Path, &languages, &record.State, &detail, &record.Attempts, &finishedRaw); err != nil {
			return nil, err
		}
		record.Languages = splitLanguages(languages)
		record.Detail = detail.String
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw); err == nil {
			record.FinishedAt = finished
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// FailedTasks lists the failed outcomes for one run.
func (s *Store) FailedTasks(ctx context.Context, runID string) ([]*TaskRecord, error) {
	records, err := s.TasksForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	failed := records[:0]
	for _, record := range records {
		if record.State == TaskFailed {
			failed = append(failed, record)
		}
	}
	return failed, nil
}

// Prune removes runs (and their tasks, via cascade) older than cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM runs WHERE started_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

const runColumns = "id, root, languages, status, total, completed, failed, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		languages   string
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Root,
		&languages,
		&run.Status,
		&run.Total,
		&run.Completed,
		&run.Failed,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Languages = splitLanguages(languages)
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func joinLanguages(languages []string) string {
	return strings.Join(languages, ",")
}

func splitLanguages(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
