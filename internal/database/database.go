// Package database opens and configures the metadata database. The
// sqlite backend serves single-host installations and tests; the
// postgres backend serves shared deployments.
package database

import (
	"database/sql"
	"fmt"

	"github.com/SGullin/arpa/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "github.com/mattn/go-sqlite3"    // sqlite driver
)

// Open creates a connection pool from the database config and returns
// it together with the driver name ("sqlite3" or "pgx").
func Open(cfg config.DatabaseConfig) (*sql.DB, string, error) {
	switch cfg.Driver {
	case "sqlite", "sqlite3":
		db, err := OpenSQLite(cfg.URL)
		if err != nil {
			return nil, "", err
		}
		applyPoolConfig(db, cfg)
		return db, "sqlite3", nil
	case "postgres", "pgx":
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, "", fmt.Errorf("opening postgres database: %w", err)
		}
		applyPoolConfig(db, cfg)
		return db, "pgx", nil
	default:
		return nil, "", fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

// OpenSQLite opens and configures a SQLite database with the PRAGMAs
// the store depends on. path can be a file path or ":memory:".
//
// WAL mode matters here: reads go through the shared pool while a
// write transaction may be open on another connection, and WAL lets
// those reads proceed, observing the last committed state.
func OpenSQLite(path string) (*sql.DB, error) {
	// DSN parameters, not PRAGMA statements: the pool opens
	// connections lazily and every one of them needs these.
	dsn := path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	return db, nil
}

func applyPoolConfig(db *sql.DB, cfg config.DatabaseConfig) {
	if cfg.PoolConnections > 0 {
		db.SetMaxOpenConns(cfg.PoolConnections)
	}
}
