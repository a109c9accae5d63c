package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration directions
const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

// MigrationStatus is the schema version after a migration run.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// Migrate applies the embedded migrations. A steps value of zero means all
// pending migrations in the given direction.
func Migrate(databaseURL, direction string, steps int) (MigrationStatus, error) {
	m, closeFn, err := newMigrator(databaseURL)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer closeFn()

	switch {
	case direction == MigrateUp && steps > 0:
		err = m.Steps(steps)
	case direction == MigrateUp:
		err = m.Up()
	case direction == MigrateDown && steps > 0:
		err = m.Steps(-steps)
	case direction == MigrateDown:
		err = m.Down()
	default:
		return MigrationStatus{}, fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("migration %s failed: %w", direction, err)
	}

	return version(m)
}

// MigrationVersion reports the current schema version without changing it.
func MigrationVersion(databaseURL string) (MigrationStatus, error) {
	m, closeFn, err := newMigrator(databaseURL)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer closeFn()
	return version(m)
}

func newMigrator(databaseURL string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, func() { m.Close() }, nil
}

func version(m *migrate.Migrate) (MigrationStatus, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	return MigrationStatus{Version: v, Dirty: dirty}, nil
}
