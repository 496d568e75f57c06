// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/kegmigrate/keg/pkg/backend"
	"github.com/kegmigrate/keg/pkg/ledger"
	"github.com/kegmigrate/keg/pkg/migration"
)

// now is overridable in tests.
var now = time.Now

// SetNowForTest overrides the clock runSingle and runGrouped use to stamp
// ledger rows, returning a restore function. For use by this module's own
// tests only.
func SetNowForTest(fn func() time.Time) (restore func()) {
	prev := now
	now = fn
	return func() { now = prev }
}

// runSingle applies each pending migration in its own transaction: execute
// the migration body, insert its ledger row, commit. A failure at any step
// rolls back that migration's transaction (by never committing it) and
// halts the run; every migration committed before the failure remains
// applied.
//
// Each migration gets its own top-level transaction rather than one
// transaction spanning the whole run, so partial-failure durability does not
// depend on how a particular driver nests transactions.
func runSingle(ctx context.Context, conn backend.Backend, pending []migration.Migration, log Logger) error {
	for _, m := range pending {
		if err := applyOne(ctx, conn, m, log); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(ctx context.Context, conn backend.Backend, m migration.Migration, log Logger) error {
	log.Info("applying migration", "name", m.String())

	tx, err := conn.Begin(ctx)
	if err != nil {
		return backend.Wrap("error starting transaction", err)
	}

	committed := false
	defer func() {
		if !committed {
			if aborter, ok := tx.(backend.Aborter); ok {
				_ = aborter.Abort(ctx)
			}
		}
	}()

	if _, err := tx.Execute(ctx, m.SQL()); err != nil {
		return backend.Wrap(fmt.Sprintf("error applying migration %s", m), err)
	}

	insert := ledger.InsertSQL(m.Version(), m.Name(), now(), m.ChecksumString())
	if _, err := tx.Execute(ctx, insert); err != nil {
		return backend.Wrap(fmt.Sprintf("error updating schema history to migration: %s", m), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return backend.Wrap("error committing transaction", err)
	}
	committed = true

	log.Info("applied migration", "name", m.String())
	return nil
}
