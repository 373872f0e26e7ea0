package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOpen is returned when a storage operation is attempted before
	// Open succeeds or after Close. Never retried automatically.
	ErrNotOpen = errors.New("store not open")

	// ErrNotFound is returned when a lookup or update targets a row that
	// does not exist.
	ErrNotFound = errors.New("not found")
)

// SQLError wraps an error returned by the SQLite engine together with the
// statement and parameters that caused it. It is always propagated to the
// caller unchanged, never swallowed.
type SQLError struct {
	Stmt string
	Args []any
	Err  error
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("sql error: %v (stmt=%q args=%v)", e.Err, e.Stmt, e.Args)
}

func (e *SQLError) Unwrap() error { return e.Err }

// DecodeError reports a row that could not be mapped onto its entity,
// for example a frequency value outside the known set. Rows are validated
// at the scan boundary instead of trusting their shape.
type DecodeError struct {
	Entity string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s row: %v", e.Entity, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
