// Package testsupport holds fakes and fixtures shared by package tests.
package testsupport

import (
	"context"
	"database/sql"
	"testing"

	"github.com/iliyamo/movie-watchlist/internal/database"
)

// MustOpenDB opens a migrated in-memory SQLite database and registers
// cleanup. Each call gets its own database.
func MustOpenDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// MustExec runs a statement against db or fails the test.
func MustExec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// CountRows returns the number of rows in table matching where (which may
// be empty).
func CountRows(t testing.TB, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
