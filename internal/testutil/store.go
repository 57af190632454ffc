// Package testutil provides shared test helpers: temporary databases,
// scripted tool runners and on-disk fixtures.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/SGullin/arpa/internal/archivist"
	"github.com/SGullin/arpa/internal/database"
	"github.com/SGullin/arpa/internal/database/migrations"
	"github.com/SGullin/arpa/internal/logging"
)

// NewTestStore opens a migrated temp-file SQLite store. The database
// lives in the test's temp dir and is closed when the test completes.
func NewTestStore(t *testing.T) *archivist.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.OpenSQLite(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := migrations.Up(db, "sqlite3"); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	store := archivist.New(db, "sqlite3", 4*time.Second, logging.NewNopLogger())

	t.Cleanup(func() {
		store.Abandon()
		store.Close()
	})

	return store
}
