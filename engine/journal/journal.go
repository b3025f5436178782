// Package journal records in-flight resolutions in SQLite so a commit batch
// that failed halfway can be found and reconciled later.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Resolution statuses.
const (
	StatusConfirming = "confirming"
	StatusAwaiting   = "awaiting"
	StatusFailed     = "failed"
	StatusResolved   = "resolved"
	StatusCancelled  = "cancelled"
)

// Entry describes one resolution as it enters the commit phase.
type Entry struct {
	ID       string
	Pipeline string
	Degree   string
	Approach string
	Turn     int
}

// Record is a stored resolution with its commit log.
type Record struct {
	Entry
	Status    string
	Error     string
	StartedAt time.Time
	UpdatedAt time.Time
	Commits   []Commit
}

// Commit is one committed (or failed) staged command.
type Commit struct {
	Seq       int
	EffectKey string
	Type      string
	Error     string
}

// Journal is what the orchestrator writes to.
type Journal interface {
	Begin(ctx context.Context, e Entry) error
	RecordCommit(ctx context.Context, resolutionID string, c Commit) error
	Finish(ctx context.Context, resolutionID, status, errMsg string) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Begin(context.Context, Entry) error                   { return nil }
func (Nop) RecordCommit(context.Context, string, Commit) error   { return nil }
func (Nop) Finish(context.Context, string, string, string) error { return nil }

const schema = `
CREATE TABLE IF NOT EXISTS resolutions (
  id          TEXT PRIMARY KEY,
  pipeline    TEXT NOT NULL,
  degree      TEXT NOT NULL,
  approach    TEXT NOT NULL DEFAULT '',
  turn        INTEGER NOT NULL,
  status      TEXT NOT NULL,
  error       TEXT NOT NULL DEFAULT '',
  started_at  INTEGER NOT NULL,
  updated_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS commits (
  resolution_id TEXT NOT NULL REFERENCES resolutions(id),
  seq           INTEGER NOT NULL,
  effect_key    TEXT NOT NULL,
  type          TEXT NOT NULL,
  error         TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (resolution_id, seq)
);
`

// Store persists the journal in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (and if needed creates) a journal database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Begin inserts a resolution in the confirming state.
func (s *Store) Begin(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("resolution id is required")
	}
	now := toMillis(s.now())
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO resolutions (id, pipeline, degree, approach, turn, status, started_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Pipeline, e.Degree, e.Approach, e.Turn, StatusConfirming, now, now,
	)
	if err != nil {
		return fmt.Errorf("begin resolution %s: %w", e.ID, err)
	}
	return nil
}

// RecordCommit appends one commit to a resolution's log.
func (s *Store) RecordCommit(ctx context.Context, resolutionID string, c Commit) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO commits (resolution_id, seq, effect_key, type, error) VALUES (?, ?, ?, ?, ?)`,
		resolutionID, c.Seq, c.EffectKey, c.Type, c.Error,
	)
	if err != nil {
		return fmt.Errorf("record commit %d for %s: %w", c.Seq, resolutionID, err)
	}
	return nil
}

// Finish sets a resolution's status.
func (s *Store) Finish(ctx context.Context, resolutionID, status, errMsg string) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE resolutions SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, errMsg, toMillis(s.now()), resolutionID,
	)
	if err != nil {
		return fmt.Errorf("finish resolution %s: %w", resolutionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish resolution %s: %w", resolutionID, sql.ErrNoRows)
	}
	return nil
}

// Get loads one resolution with its commits.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, pipeline, degree, approach, turn, status, error, started_at, updated_at
		 FROM resolutions WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("get resolution %s: %w", id, err)
	}
	if r.Commits, err = s.commits(ctx, id); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Incomplete lists resolutions that never reached a terminal state,
// oldest first.
func (s *Store) Incomplete(ctx context.Context) ([]Record, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, pipeline, degree, approach, turn, status, error, started_at, updated_at
		 FROM resolutions WHERE status NOT IN (?, ?)
		 ORDER BY started_at, id`, StatusResolved, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("list incomplete resolutions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	for i := range out {
		if out[i].Commits, err = s.commits(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) commits(ctx context.Context, id string) ([]Commit, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, effect_key, type, error FROM commits WHERE resolution_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list commits for %s: %w", id, err)
	}
	defer rows.Close()
	var out []Commit
	for rows.Next() {
		var c Commit
		if err := rows.Scan(&c.Seq, &c.EffectKey, &c.Type, &c.Error); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var r Record
	var started, updated int64
	if err := row.Scan(&r.ID, &r.Pipeline, &r.Degree, &r.Approach, &r.Turn,
		&r.Status, &r.Error, &started, &updated); err != nil {
		return Record{}, err
	}
	r.StartedAt = fromMillis(started)
	r.UpdatedAt = fromMillis(updated)
	return r, nil
}
