package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/chitralabs/chitra/internal/db"
	"github.com/chitralabs/chitra/internal/logging"
)

func init() {
	logging.Disable()
}

// openTestDB creates a fresh migrated database in a temp directory.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "chitra.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}
