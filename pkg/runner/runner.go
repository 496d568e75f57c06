// SPDX-License-Identifier: Apache-2.0

// Package runner orchestrates a migration run: it ensures the ledger exists,
// reads the current version, filters and sorts pending migrations, and
// dispatches to one of two execution strategies against a backend.Backend.
package runner

import (
	"context"

	"github.com/kegmigrate/keg/pkg/backend"
	"github.com/kegmigrate/keg/pkg/migration"
)

// Runner holds an ordered, immutable set of migrations and a single
// grouped/not-grouped mode toggle. A Runner is constructed once and is
// single-use per database connection.
type Runner struct {
	migrations []migration.Migration
	grouped    bool
	logger     Logger
}

// New constructs a Runner over migrations. grouped defaults to false.
func New(migrations []migration.Migration) *Runner {
	return &Runner{
		migrations: append([]migration.Migration(nil), migrations...),
		logger:     NewNoopLogger(),
	}
}

// SetGrouped toggles between the grouped and single-migration-transaction
// strategies.
func (r *Runner) SetGrouped(grouped bool) {
	r.grouped = grouped
}

// SetLogger installs a Logger used to report progress. The zero value
// (no call to SetLogger) logs nothing.
func (r *Runner) SetLogger(l Logger) {
	r.logger = l
}

// Run brings conn from its current ledger version to the latest version
// named by r.migrations. If grouped is set and conn implements
// backend.MultiExecutor, the grouped strategy is used; otherwise the
// per-migration-transaction strategy is used. A second Run against a
// database already at the latest version is a no-op.
func (r *Runner) Run(ctx context.Context, conn backend.Backend) error {
	if err := backend.EnsureLedger(ctx, conn); err != nil {
		return backend.Wrap("error asserting migrations table", err)
	}

	current, err := backend.CurrentVersion(ctx, conn)
	if err != nil {
		return backend.Wrap("error getting current schema version", err)
	}
	r.logger.Info("current migration version", "version", current.Version)

	pending := pendingMigrations(r.migrations, current.Version)
	if len(pending) == 0 {
		r.logger.Info("no migrations to apply")
		return nil
	}

	if r.grouped {
		if multi, ok := conn.(backend.MultiExecutor); ok {
			return runGrouped(ctx, multi, pending, r.logger)
		}
	}
	return runSingle(ctx, conn, pending, r.logger)
}

// pendingMigrations returns migrations with version > currentVersion,
// sorted strictly ascending by version.
func pendingMigrations(migrations []migration.Migration, currentVersion uint64) []migration.Migration {
	pending := make([]migration.Migration, 0, len(migrations))
	for _, m := range migrations {
		if m.Version() > currentVersion {
			pending = append(pending, m)
		}
	}
	migration.SortByVersion(pending)
	return pending
}
