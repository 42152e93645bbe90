package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a private in-memory SQLite database that is closed when
// the test ends.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
