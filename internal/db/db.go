// Package db provides the local pending store for tasklist.
//
// Tasks created while the board is unreachable are kept in a single SQLite
// file until the sync orchestrator uploads them. The store is embedded
// (ncruces/go-sqlite3, no cgo) and runs in WAL mode so a crash mid-write
// never leaves a half-applied change behind.
//
// Layout:
//   - tasks:    one row per pending task, keyed by a never-reused integer id
//   - subtasks: local annotations, foreign key to tasks(id) with cascade
//
// Every operation has a Context twin; the plain form uses
// context.Background().
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tasklist-cli/tasklist/internal/types"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// timeLayout is fixed width so timestamps sort lexically in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps the SQLite connection holding pending tasks.
type DB struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the pending store at path.
//
// The parent directory is created if needed. Foreign keys, WAL and a busy
// timeout are enabled through the connection string so every pooled
// connection gets them.
//
// The caller MUST call Close() when done.
//
// Example:
//
//	store, err := db.Open(filepath.Join(dataDir, "tasks.db"))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w: %w", types.ErrStorage, err)
	}

	connStr := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w: %w", types.ErrStorage, err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w: %w", types.ErrStorage, err)
	}

	// One command at a time touches the store; a single connection keeps
	// writes strictly ordered.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	return &DB{
		conn: conn,
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the file backing the store.
func (db *DB) Path() string {
	return db.path
}

// SetClock replaces the clock used for created_at/updated_at. Tests use it
// to produce deterministic orderings.
func (db *DB) SetClock(now func() time.Time) {
	db.now = func() time.Time { return now().UTC() }
}

// Close closes the database connection after checkpointing the WAL.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w: %w", types.ErrStorage, err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the tasks and subtasks tables if they don't exist.
// It is idempotent.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		description TEXT NOT NULL,
		due_date TEXT,
		priority INTEGER NOT NULL DEFAULT 1 CHECK (priority BETWEEN 1 AND 3),
		category TEXT NOT NULL DEFAULT '',
		list_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'uploading', 'uploaded', 'failed')),
		sync_key TEXT NOT NULL UNIQUE,
		card_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subtasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		parent_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (parent_id) REFERENCES tasks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category);
	CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);
	CREATE INDEX IF NOT EXISTS idx_subtasks_parent ON subtasks(parent_id, created_at);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w: %w", types.ErrStorage, err)
	}

	return nil
}

// storageErr wraps a driver error so callers can match types.ErrStorage.
func storageErr(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, types.ErrStorage, err)
}

// inTx runs fn inside a transaction, committing on success.
// Errors returned by fn are passed through unchanged.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

// formatTime converts t to the fixed-width storage layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp, returning the zero time on garbage.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// dateToNullString converts a due date to a nullable YYYY-MM-DD string.
func dateToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: t.Format(types.DateLayout), Valid: true}
}

// nullStringToDate converts a nullable SQL string to a due date pointer.
func nullStringToDate(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(types.DateLayout, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

// isNoRows reports whether err is sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
