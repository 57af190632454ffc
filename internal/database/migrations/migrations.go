// Package migrations embeds the schema migration files and applies
// them with golang-migrate, one dialect directory per driver.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFiles embed.FS

// Up runs all pending migrations for the given driver ("sqlite3" or
// "pgx"), bringing the database to the latest schema version.
func Up(db *sql.DB, driver string) error {
	m, err := newMigrate(db, driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	// m is not closed: closing it would close db, which the caller owns.

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Check verifies the schema is at the latest version without touching
// it. Returns an error describing any version mismatch or dirty state.
func Check(db *sql.DB, driver string) error {
	m, err := newMigrate(db, driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("database has no schema version (needs `arpa db init`)")
		}
		return fmt.Errorf("getting database version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d (a migration failed previously)", version)
	}

	src, err := sourceFor(driver)
	if err != nil {
		return err
	}
	defer src.Close()

	latest, err := latestVersion(src)
	if err != nil {
		return fmt.Errorf("determining latest version: %w", err)
	}

	switch {
	case version < latest:
		return fmt.Errorf("database is at version %d but latest is %d (%d behind)", version, latest, latest-version)
	case version > latest:
		return fmt.Errorf("database version %d is ahead of binary version %d (binary needs update)", version, latest)
	}
	return nil
}

func newMigrate(db *sql.DB, driver string) (*migrate.Migrate, error) {
	src, err := sourceFor(driver)
	if err != nil {
		return nil, err
	}

	var dbDriver database.Driver
	switch driver {
	case "sqlite3":
		dbDriver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case "pgx", "postgres":
		dbDriver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		src.Close()
		return nil, fmt.Errorf("no migrations for driver %s", driver)
	}
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, dbDriver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}

func sourceFor(driver string) (source.Driver, error) {
	dir := "sqlite"
	if driver == "pgx" || driver == "postgres" {
		dir = "postgres"
	}
	src, err := iofs.New(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migration files: %w", err)
	}
	return src, nil
}

func latestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(version)
		if err != nil {
			// Any error from Next means the end of the sequence.
			break
		}
		version = next
	}
	return version, nil
}
