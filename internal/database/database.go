// Package database opens the spotless SQLite store and keeps its schema
// current with the embedded goose migrations.
package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// dsnOptions tunes every connection for a single-file service database:
// WAL so the hygiene ticker and backup VACUUM don't block request reads,
// and a 10s busy timeout because bulk lead imports can hold the writer
// for a while.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=on"

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens the database at dbPath and migrates it to the current schema.
// Bookings, properties, and notifications all carry foreign keys, so
// enforcement is switched on explicitly as well: modernc/sqlite does not
// honor the DSN parameter for ":memory:" paths.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	if dbPath == ":memory:" {
		// Each pooled connection to ":memory:" would be its own empty
		// database; pin the pool to one connection.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
