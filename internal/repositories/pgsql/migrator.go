package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// EnsureSchema runs every pending "up" migration, idempotently,
// following the teacher's cmd/mma_backend/main.go runDatabaseMigrations:
// a standalone database/sql connection via the pgx stdlib driver feeds
// golang-migrate's postgres driver.
func (s *Store) EnsureSchema(ctx context.Context) error {
	db, err := sql.Open("pgx", s.DSN)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("build postgres migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(s.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("build migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source close: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database close: %w", dbErr)
	}
	return nil
}
