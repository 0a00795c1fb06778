package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsTable = "storefront_schema_migrations"

// ErrDirtySchema means a previous migration failed halfway and needs a
// manual fix before the service can start.
var ErrDirtySchema = errors.New("database schema is dirty")

// RunMigrations brings the schema up to the newest embedded version and
// reports the version it ended on.
func RunMigrations(dsn string, logger *zap.Logger) (uint, error) {
	conn, err := openDB(dsn)
	if err != nil {
		return 0, fmt.Errorf("open db for migrations: %w", err)
	}
	defer conn.Close()

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("migration source: %w", err)
	}
	target, err := postgres.WithInstance(conn, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return 0, fmt.Errorf("migration target: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", target)
	if err != nil {
		return 0, fmt.Errorf("migrate instance: %w", err)
	}

	if before, dirty, err := m.Version(); err == nil && dirty {
		return before, fmt.Errorf("%w at version %d", ErrDirtySchema, before)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("schema already current")
	case err != nil:
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("schema migrated", zap.Uint("version", version))
	return version, nil
}
