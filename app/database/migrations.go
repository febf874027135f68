package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const migrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var migrationFS embed.FS

// RunMigrations brings the article schema up to the newest embedded version.
// It refuses to run on a database left dirty by a failed migration. The
// migrate instance is not closed since that would close db as well.
func RunMigrations(db *DB) (uint, bool, error) {
	target, err := sqlite.WithInstance(db.DB, &sqlite.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return 0, false, fmt.Errorf("failed to prepare schema migrations: %w", err)
	}

	scripts, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return 0, false, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", scripts, "sqlite", target)
	if err != nil {
		return 0, false, fmt.Errorf("failed to prepare schema migrations: %w", err)
	}

	before, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return before, true, fmt.Errorf("schema version %d is dirty, fix it by hand before starting", before)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, false, fmt.Errorf("failed to migrate article schema: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != before {
		slog.Debug("Article schema migrated", "from", before, "to", version)
	}

	return version, dirty, nil
}
