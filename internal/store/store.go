package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on records.kind for List/Count
const currentSchemaVersion = 1

// Every context holds one pooled connection until it commits or rolls
// back, so the pool is unbounded by default: a cap below the size of an
// admission batch would leave granted reads waiting on each other.
const defaultMaxIdleConns = 8

// Store is the persistence container shared by every operation.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db   *sql.DB
	path string

	// scratchDir is removed on Close. Set only by OpenMemory.
	scratchDir string
}

type options struct {
	maxOpenConns int
}

// Option configures Open.
type Option func(*options)

// WithMaxOpenConns caps the connection pool. Values below 1 leave the pool
// unbounded. A cap smaller than the largest read batch serializes the reads
// above it.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required settings and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")

	return open("file:"+path+"?"+params.Encode(), path, o.maxOpenConns)
}

// OpenMemory opens a private scratch database that is discarded on Close.
//
// Each call gets its own WAL database in a fresh temp directory, so reads
// run concurrently with each other and with a write exactly as they do on a
// file store. Path reports ":memory:".
func OpenMemory() (*Store, error) {
	dir, err := os.MkdirTemp("", "ledger-memory-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	s, err := Open(filepath.Join(dir, "ledger.db"))
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	s.path = ":memory:"
	s.scratchDir = dir
	return s, nil
}

func open(dsn, path string, maxOpenConns int) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	if maxOpenConns > 0 {
		db.SetMaxIdleConns(maxOpenConns)
	} else {
		db.SetMaxIdleConns(defaultMaxIdleConns)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection and removes the scratch directory
// of a store from OpenMemory.
func (s *Store) Close() error {
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.scratchDir != "" {
		errs = append(errs, os.RemoveAll(s.scratchDir))
	}
	return errors.Join(errs...)
}

// Path returns the database path, or ":memory:" for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// NewContext begins a fresh transaction for one operation.
func (s *Store) NewContext(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx is a per-operation persistence context.
// Not safe for concurrent use.
type Tx struct {
	tx *sql.Tx
}

// Commit makes the context's writes durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the context's writes. Rolling back a finished context
// is a no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the kind index used by List and Count.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}
