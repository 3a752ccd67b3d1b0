package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// DefaultMigrationsURL points at the SQL files relative to the repo root.
const DefaultMigrationsURL = "file://internal/db/migrations"

// MigrateUp applies all pending up migrations. No pending change is not an error.
func MigrateUp(sourceURL, dsn string) error {
	return runMigration(sourceURL, dsn, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back the given number of migrations, or all when steps <= 0.
func MigrateDown(sourceURL, dsn string, steps int) error {
	return runMigration(sourceURL, dsn, func(m *migrate.Migrate) error {
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	})
}

func runMigration(sourceURL, dsn string, apply func(*migrate.Migrate) error) error {
	migrator, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := apply(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
