package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
)

// HistoryFile is the database name inside the data directory.
const HistoryFile = "history.db"

// Run is one row of run history.
type Run struct {
	ID        string
	Path      string
	Args      string
	PID       int
	StartedAt time.Time
	EndedAt   time.Time // zero while running or if the app died first
	Code      int
	Killed    bool
	Err       string
}

// Finished reports whether the run's end was recorded.
func (r Run) Finished() bool { return !r.EndedAt.IsZero() }

// History records browser runs in SQLite.
type History struct {
	db *sql.DB
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	args       TEXT NOT NULL DEFAULT '',
	pid        INTEGER NOT NULL DEFAULT 0,
	started_at TEXT NOT NULL,
	ended_at   TEXT,
	code       INTEGER,
	killed     INTEGER NOT NULL DEFAULT 0,
	err        TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at)`,
}

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(ctx context.Context, path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open history: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping history: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close()
		return nil, fmt.Errorf("store: chmod history: %w", err)
	}
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: migrate history %d: %w", i, err)
		}
	}
	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Started records a new run. Started and Finished may arrive in either
// order for very short runs.
func (h *History) Started(ctx context.Context, info supervisor.RunInfo) error {
	_, err := h.db.ExecContext(ctx, `
INSERT INTO runs(id, path, args, pid, started_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	path = excluded.path,
	args = excluded.args,
	pid = excluded.pid,
	started_at = excluded.started_at`,
		info.ID, info.Path, strings.Join(info.Args, " "), info.PID, ts(info.StartedAt))
	if err != nil {
		return fmt.Errorf("store: record start %s: %w", info.ID, err)
	}
	return nil
}

// Finished records the end of a run.
func (h *History) Finished(ctx context.Context, exit supervisor.Exit) error {
	var errText string
	if exit.Err != nil {
		errText = exit.Err.Error()
	}
	_, err := h.db.ExecContext(ctx, `
INSERT INTO runs(id, path, started_at, ended_at, code, killed, err) VALUES (?, '', ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	ended_at = excluded.ended_at,
	code = excluded.code,
	killed = excluded.killed,
	err = excluded.err`,
		exit.RunID, ts(exit.StartedAt), ts(exit.EndedAt), exit.Code, boolInt(exit.Killed), errText)
	if err != nil {
		return fmt.Errorf("store: record exit %s: %w", exit.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
SELECT id, path, args, pid, started_at, COALESCE(ended_at, ''), COALESCE(code, 0), killed, err
FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query history: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r              Run
			started, ended string
			killed         int
		)
		if err := rows.Scan(&r.ID, &r.Path, &r.Args, &r.PID, &started, &ended, &r.Code, &killed, &r.Err); err != nil {
			return nil, fmt.Errorf("store: scan history: %w", err)
		}
		r.StartedAt = parseTS(started)
		r.EndedAt = parseTS(ended)
		r.Killed = killed != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate history: %w", err)
	}
	return out, nil
}

// tsLayout is fixed-width so timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func ts(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTS(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
