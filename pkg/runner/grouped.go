// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"fmt"

	"github.com/kegmigrate/keg/pkg/backend"
	"github.com/kegmigrate/keg/pkg/ledger"
	"github.com/kegmigrate/keg/pkg/migration"
)

// runGrouped concatenates every pending migration's SQL body with its
// ledger-insert statement into one list, and hands the whole list to
// ExecuteMany, which runs it as a single atomic transaction. On failure
// nothing is applied and the ledger is unchanged.
func runGrouped(ctx context.Context, conn backend.MultiExecutor, pending []migration.Migration, log Logger) error {
	stmts := make([]string, 0, len(pending)*2)
	for _, m := range pending {
		stmts = append(stmts, m.SQL())
		stmts = append(stmts, ledger.InsertSQL(m.Version(), m.Name(), now(), m.ChecksumString()))
	}

	log.Info("applying grouped migrations", "count", len(pending))

	last := pending[len(pending)-1]
	if _, err := conn.ExecuteMany(ctx, stmts); err != nil {
		return backend.Wrap(fmt.Sprintf("error applying migration %s", last), err)
	}

	log.Info("applied grouped migrations", "count", len(pending))
	return nil
}
