package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"clipmatch/internal/services"
)

// Store persists evaluation runs and their score distributions in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the results database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure results directory: %w", err)
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// CreateRun inserts a run row, assigning a UUID and timestamp when unset.
func (s *Store) CreateRun(ctx context.Context, run Run) (Run, error) {
	ctx = ensureContext(ctx)
	if run.UUID == "" {
		run.UUID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			"INSERT INTO runs (uuid, created_at, split, fragment_type, clips, config_json) VALUES (?, ?, ?, ?, ?, ?)",
			run.UUID, run.CreatedAt.Format(time.RFC3339Nano), run.Split, run.FragmentType, run.Clips, run.Config)
		return execErr
	})
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	run.ID, err = res.LastInsertId()
	if err != nil {
		return Run{}, fmt.Errorf("run id: %w", err)
	}
	return run, nil
}

// AddScores appends scores to a run in a single transaction.
func (s *Store) AddScores(ctx context.Context, runID int64, scores []Score) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin scores tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO scores (run_id, metric, cutoff, sample_idx, value) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare scores insert: %w", err)
		}
		defer stmt.Close()

		for _, score := range scores {
			if _, err := stmt.ExecContext(ctx, runID, score.Metric, score.Cutoff, score.SampleIdx, score.Value); err != nil {
				return fmt.Errorf("insert score: %w", err)
			}
		}
		return tx.Commit()
	})
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, uuid, created_at, split, fragment_type, clips, config_json FROM runs ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRun resolves a run by UUID, accepting an unambiguous prefix.
func (s *Store) FindRun(ctx context.Context, ref string) (Run, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, uuid, created_at, split, fragment_type, clips, config_json FROM runs WHERE uuid LIKE ? ORDER BY created_at DESC",
		ref+"%")
	if err != nil {
		return Run{}, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, services.Wrap(services.ErrNotFound, "results", "find",
			fmt.Sprintf("no run matching %q", ref), nil)
	case 1:
		return matches[0], nil
	default:
		return Run{}, services.Wrap(services.ErrValidation, "results", "find",
			fmt.Sprintf("%q matches %d runs, use more of the uuid", ref, len(matches)), nil)
	}
}

// RunScores returns every score row for a run in insertion order.
func (s *Store) RunScores(ctx context.Context, runID int64) ([]Score, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT metric, cutoff, sample_idx, value FROM scores WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("run scores: %w", err)
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var score Score
		if err := rows.Scan(&score.Metric, &score.Cutoff, &score.SampleIdx, &score.Value); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// DeleteRun removes a run and, via the foreign key cascade, its scores.
func (s *Store) DeleteRun(ctx context.Context, runID int64) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
		return err
	})
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run        Run
		createdRaw string
		configRaw  sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.UUID, &createdRaw, &run.Split, &run.FragmentType, &run.Clips, &configRaw); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return Run{}, fmt.Errorf("parse run timestamp %q: %w", createdRaw, err)
	}
	run.CreatedAt = created
	run.Config = configRaw.String
	return run, nil
}
