// Package store implements the persistence layer: a lifecycle-managed
// SQLite gateway plus one repository per aggregate root. Repositories own
// their persisted representation exclusively; services never issue SQL
// around them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Gateway owns the single connection handle to the embedded database file.
// It is constructed once at startup and injected into repositories; all
// writers share the one connection, which serializes them in practice.
type Gateway struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewGateway creates a Gateway for the database file at path. The file is
// not touched until Open is called.
func NewGateway(path string) *Gateway {
	return &Gateway{path: path}
}

// Open opens the database file, applies pragmas, and runs schema
// migrations. It is idempotent: a second call on an open gateway is a
// no-op.
func (g *Gateway) Open(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db != nil {
		return nil
	}

	if dir := filepath.Dir(g.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", g.path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// One shared connection: matches the single-writer semantics of the
	// embedded store and keeps transactions on the same handle.
	db.SetMaxOpenConns(1)

	if err := enablePragmas(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	g.db = db
	return nil
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close releases the connection handle. Subsequent operations fail with
// ErrNotOpen until Open is called again.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}

	err := g.db.Close()
	g.db = nil
	return err
}

// handle returns the open database or ErrNotOpen.
func (g *Gateway) handle() (*sql.DB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil, ErrNotOpen
	}
	return g.db, nil
}

// Exec runs a mutating statement. Engine rejections are wrapped in a
// SQLError carrying the statement and parameters for diagnosis.
func (g *Gateway) Exec(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	db, err := g.handle()
	if err != nil {
		return nil, err
	}

	res, err := db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, &SQLError{Stmt: stmt, Args: args, Err: err}
	}
	return res, nil
}

// Query runs a statement returning multiple rows.
func (g *Gateway) Query(ctx context.Context, stmt string, args ...any) (*sql.Rows, error) {
	db, err := g.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &SQLError{Stmt: stmt, Args: args, Err: err}
	}
	return rows, nil
}

// QueryRow runs a statement expected to return at most one row. Engine
// errors surface from the row's Scan.
func (g *Gateway) QueryRow(ctx context.Context, stmt string, args ...any) (*sql.Row, error) {
	db, err := g.handle()
	if err != nil {
		return nil, err
	}
	return db.QueryRowContext(ctx, stmt, args...), nil
}

// WithTx runs fn inside a transaction. If fn returns an error or panics,
// all writes since the transaction began are rolled back; otherwise the
// transaction commits atomically.
func (g *Gateway) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := g.handle()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
