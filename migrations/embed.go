// Package migrations embeds the SQL schema migrations applied by goose.
//
// Migrations are forward-only and additive. Every step is written so it can
// be re-applied after a crash mid-migration without error (IF NOT EXISTS
// guards on tables and indexes).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
