package store

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/vesperhq/vesper/migrations"
)

// RunMigrations applies all pending schema migrations using goose against
// the embedded SQL files. Migrations are forward-only; goose records the
// applied version in the database so reopening an up-to-date file is a
// no-op. A failure here is fatal to Open since the schema is required.
func RunMigrations(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
