// SPDX-License-Identifier: Apache-2.0

package testutils

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// WithSQLiteDatabase opens a fresh in-memory SQLite database and passes it
// to fn, closing it via t.Cleanup. Each call gets its own isolated
// database: ":memory:" is per-connection, not shared across calls.
func WithSQLiteDatabase(t *testing.T, fn func(db *sql.DB)) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fn(db)
}
