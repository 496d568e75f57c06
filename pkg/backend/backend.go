// SPDX-License-Identifier: Apache-2.0

// Package backend defines the capability set a database adapter must supply
// to the runner, plus the composed operations (ensure-ledger,
// current-version) built from those capabilities. Adapters implement the
// subset their driver supports; pkg/runner type-asserts for the optional
// MultiExecutor capability to decide between the single and grouped
// execution strategies.
package backend

import (
	"context"

	"github.com/kegmigrate/keg/pkg/ledger"
)

// Executor runs one statement and reports the number of affected rows (0 if
// the driver cannot report it).
type Executor interface {
	Execute(ctx context.Context, stmt string) (rowsAffected int64, err error)
}

// MultiExecutor runs a contiguous sequence of statements atomically, all in
// a single transaction. Only backends that support the grouped strategy
// need to implement it.
type MultiExecutor interface {
	ExecuteMany(ctx context.Context, stmts []string) (rowsAffected int64, err error)
}

// VersionQuerier runs the canonical current-version query and decodes the
// single row if present.
type VersionQuerier interface {
	QueryCurrentVersion(ctx context.Context) (*ledger.AppliedMigration, error)
}

// Tx is a transaction: it may execute statements, read the current version,
// and commit. There is deliberately no Rollback in this capability set —
// rollback is "not committing"; see Aborter for the adapter-side resource
// cleanup this implies for real drivers.
type Tx interface {
	Executor
	VersionQuerier
	Commit(ctx context.Context) error
}

// Aborter is an optional capability a Tx implementation may provide so the
// runner can release driver resources (e.g. an underlying *sql.Tx) when a
// transaction is abandoned without being committed. A backend whose begin/
// commit are no-ops (no real transactional resource to release) need not
// implement it.
type Aborter interface {
	Abort(ctx context.Context) error
}

// Transactor starts a transaction. Isolation level REPEATABLE READ is
// requested where the backend honors it; autocommit is disabled for the
// duration of the transaction.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// Backend is the full capability set the runner requires at minimum: plain
// execute, a top-level version read, and the ability to start transactions
// for the single-migration strategy. Implement MultiExecutor in addition to
// opt into the grouped strategy.
type Backend interface {
	Executor
	VersionQuerier
	Transactor
}

// EnsureLedger creates the keg_schema_history table if it does not already
// exist. Idempotent: safe to call on every run.
func EnsureLedger(ctx context.Context, e Executor) error {
	_, err := e.Execute(ctx, ledger.CreateTableSQL)
	return err
}

// CurrentVersion returns the highest applied migration, or ledger.Zero if
// the ledger is empty.
func CurrentVersion(ctx context.Context, q VersionQuerier) (ledger.AppliedMigration, error) {
	applied, err := q.QueryCurrentVersion(ctx)
	if err != nil {
		return ledger.AppliedMigration{}, err
	}
	if applied == nil {
		return ledger.Zero, nil
	}
	return *applied, nil
}
