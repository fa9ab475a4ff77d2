// Package dbtest opens throwaway migrated SQLite databases for tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"grocery-planner/internal/database"
	"grocery-planner/internal/logging"
)

// New returns a migrated database in t's temp dir, closed on cleanup.
func New(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db.SQL
}

// SeedUser inserts a bare user row so foreign keys hold.
func SeedUser(t testing.TB, db *sql.DB, id string) {
	t.Helper()

	now := database.FormatTime(time.Now())
	_, err := db.Exec(
		`INSERT INTO users (id, email, google_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, id+"@example.com", "google-"+id, now, now,
	)
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", id, err)
	}
}
