// Package migrations embeds the SQLite schema and applies it with goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Dialect is the goose dialect of the embedded migrations.
const Dialect = "sqlite3"

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS

// Run brings the schema of db up to date.
func Run(db *sql.DB) error {
	goose.SetBaseFS(FS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(Dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
