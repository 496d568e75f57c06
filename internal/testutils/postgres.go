// SPDX-License-Identifier: Apache-2.0

// Package testutils provides the test harnesses used by this module's
// integration tests: a shared Postgres testcontainer with a fresh database
// per test, and an in-memory SQLite helper.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// defaultPostgresVersion is used when POSTGRES_VERSION is unset.
const defaultPostgresVersion = "15.3"

// containerConnStr holds the connection string to the container started by
// SharedTestMain.
var containerConnStr string

// SharedTestMain starts a single Postgres container shared by every test in
// the calling package; each test then creates its own database inside it.
func SharedTestMain(m *testing.M) {
	ctx := context.Background()

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(5 * time.Second)

	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+pgVersion),
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		os.Exit(1)
	}

	containerConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %v", err)
	}

	os.Exit(exitCode)
}

// WithPostgresDatabase creates a fresh database in the shared container,
// opens a connection to it, and passes the connection string and *sql.DB to
// fn. Both are torn down via t.Cleanup.
func WithPostgresDatabase(t *testing.T, fn func(dsn string, db *sql.DB)) {
	t.Helper()
	ctx := context.Background()

	adminDB, err := sql.Open("postgres", containerConnStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = adminDB.Close() })

	dbName := randomDBName()
	if _, err := adminDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))); err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(containerConnStr)
	if err != nil {
		t.Fatal(err)
	}
	u.Path = "/" + dbName
	dsn := u.String()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fn(dsn, db)
}

func randomDBName() string {
	const length = 15
	const charset = "abcdefghijklmnopqrstuvwxyz"

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))] // #nosec G404
	}
	return "testdb_" + string(b)
}
