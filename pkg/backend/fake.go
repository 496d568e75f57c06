// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kegmigrate/keg/pkg/ledger"
)

// insertRE recovers the fields of a canonical ledger.InsertSQL statement so
// Fake can maintain its in-memory ledger without a real database.
var insertRE = regexp.MustCompile(`VALUES \((\d+), '([^']*)', '([^']*)', '([^']*)'\)`)

// Fake is an in-memory Backend implementing both the single and grouped
// strategy capability sets, for fast unit tests of pkg/runner that don't
// need a real database. All methods are safe for the sequential access
// pattern the runner uses; Fake is not intended for concurrent use.
type Fake struct {
	mu       sync.Mutex
	rows     []ledger.AppliedMigration
	executed []string
	failing  map[string]error
}

// NewFake returns an empty Fake backend.
func NewFake() *Fake {
	return &Fake{failing: map[string]error{}}
}

// FailStatementContaining makes any future statement containing substr fail
// with err, simulating invalid SQL or a driver error at that step.
func (f *Fake) FailStatementContaining(substr string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[substr] = err
}

// Executed returns every statement that was durably applied (i.e. committed,
// for the single strategy, or part of a successful ExecuteMany batch).
func (f *Fake) Executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

// Rows returns the current ledger contents in the order they were committed;
// they are not re-sorted by version.
func (f *Fake) Rows() []ledger.AppliedMigration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ledger.AppliedMigration(nil), f.rows...)
}

func (f *Fake) checkFailing(stmt string) error {
	for substr, err := range f.failing {
		if strings.Contains(stmt, substr) {
			return err
		}
	}
	return nil
}

// Execute applies stmt immediately (outside any transaction) and commits it
// to the fake's durable state.
func (f *Fake) Execute(_ context.Context, stmt string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkFailing(stmt); err != nil {
		return 0, err
	}
	f.apply(stmt)
	return 0, nil
}

// apply must be called with f.mu held.
func (f *Fake) apply(stmt string) {
	f.executed = append(f.executed, stmt)
	if row, ok := parseInsert(stmt); ok {
		f.rows = append(f.rows, row)
	}
}

// ExecuteMany applies every statement as a single all-or-nothing batch: if
// any statement would fail, none are applied.
func (f *Fake) ExecuteMany(_ context.Context, stmts []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, stmt := range stmts {
		if err := f.checkFailing(stmt); err != nil {
			return 0, err
		}
	}
	for _, stmt := range stmts {
		f.apply(stmt)
	}
	return 0, nil
}

// QueryCurrentVersion returns the highest committed row, or nil if the
// ledger is empty.
func (f *Fake) QueryCurrentVersion(_ context.Context) (*ledger.AppliedMigration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maxRow(f.rows), nil
}

// Begin starts a fake transaction. Statements executed against it are
// buffered and only become visible to the rest of the backend on Commit.
func (f *Fake) Begin(_ context.Context) (Tx, error) {
	return &fakeTx{fake: f}, nil
}

type fakeTx struct {
	fake    *Fake
	pending []string
}

func (tx *fakeTx) Execute(_ context.Context, stmt string) (int64, error) {
	tx.fake.mu.Lock()
	defer tx.fake.mu.Unlock()

	if err := tx.fake.checkFailing(stmt); err != nil {
		return 0, err
	}
	tx.pending = append(tx.pending, stmt)
	return 0, nil
}

func (tx *fakeTx) QueryCurrentVersion(_ context.Context) (*ledger.AppliedMigration, error) {
	tx.fake.mu.Lock()
	defer tx.fake.mu.Unlock()

	rows := append([]ledger.AppliedMigration(nil), tx.fake.rows...)
	for _, stmt := range tx.pending {
		if row, ok := parseInsert(stmt); ok {
			rows = append(rows, row)
		}
	}
	return maxRow(rows), nil
}

func (tx *fakeTx) Commit(_ context.Context) error {
	tx.fake.mu.Lock()
	defer tx.fake.mu.Unlock()

	for _, stmt := range tx.pending {
		tx.fake.apply(stmt)
	}
	return nil
}

// Abort discards the transaction's buffered statements. Implements Aborter.
func (tx *fakeTx) Abort(_ context.Context) error {
	tx.pending = nil
	return nil
}

func maxRow(rows []ledger.AppliedMigration) *ledger.AppliedMigration {
	if len(rows) == 0 {
		return nil
	}
	max := rows[0]
	for _, r := range rows[1:] {
		if r.Version > max.Version {
			max = r
		}
	}
	return &max
}

func parseInsert(stmt string) (ledger.AppliedMigration, bool) {
	if !strings.Contains(stmt, "INSERT INTO keg_schema_history") {
		return ledger.AppliedMigration{}, false
	}
	groups := insertRE.FindStringSubmatch(stmt)
	if groups == nil {
		return ledger.AppliedMigration{}, false
	}
	version, err := strconv.ParseUint(groups[1], 10, 64)
	if err != nil {
		return ledger.AppliedMigration{}, false
	}
	installedOn, err := time.Parse(time.RFC3339, groups[3])
	if err != nil {
		return ledger.AppliedMigration{}, false
	}
	return ledger.AppliedMigration{
		Version:     version,
		Name:        groups[2],
		InstalledOn: installedOn,
		Checksum:    groups[4],
	}, true
}
