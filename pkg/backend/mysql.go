// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/kegmigrate/keg/pkg/ledger"
)

// MySQL is the auto-commit-DDL adapter: MySQL implicitly commits DDL
// statements even inside an explicit transaction, so a long-lived
// transaction wrapping a single statement is a formality rather than a
// rollback guarantee. Execute therefore starts and commits its own
// transaction per statement; ExecuteMany still opens one transaction for
// the whole batch, executing the statements one by one and committing once
// at the end, so the ledger insert commits alongside the last migration
// statement.
type MySQL struct {
	DB *sql.DB
}

// OpenMySQL opens dsn with the "mysql" driver (go-sql-driver/mysql).
func OpenMySQL(ctx context.Context, dsn string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &MySQL{DB: db}, nil
}

func (m *MySQL) Close() error {
	return m.DB.Close()
}

func (m *MySQL) Execute(ctx context.Context, stmt string) (int64, error) {
	tx, err := m.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, stmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (m *MySQL) ExecuteMany(ctx context.Context, stmts []string) (int64, error) {
	tx, err := m.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return 0, err
	}

	var total int64
	for _, stmt := range stmts {
		res, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

func (m *MySQL) QueryCurrentVersion(ctx context.Context) (*ledger.AppliedMigration, error) {
	return decodeMySQLCurrentVersion(ctx, m.DB)
}

// Begin starts a transaction whose DDL statements MySQL will auto-commit
// regardless of whether Commit is ultimately called; the ledger insert
// executed last in the same transaction still commits or aborts with it.
func (m *MySQL) Begin(ctx context.Context) (Tx, error) {
	tx, err := m.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}
	return &mysqlTx{tx: tx}, nil
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) Execute(ctx context.Context, stmt string) (int64, error) {
	res, err := t.tx.ExecContext(ctx, stmt)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (t *mysqlTx) QueryCurrentVersion(ctx context.Context) (*ledger.AppliedMigration, error) {
	return decodeMySQLCurrentVersion(ctx, t.tx)
}

func (t *mysqlTx) Commit(context.Context) error {
	return t.tx.Commit()
}

func (t *mysqlTx) Abort(context.Context) error {
	return t.tx.Rollback()
}

func decodeMySQLCurrentVersion(ctx context.Context, q queryRowContexter) (*ledger.AppliedMigration, error) {
	var version int64
	var name, installedOnRaw, checksum string

	row := q.QueryRowContext(ctx, ledger.CurrentVersionSQL)
	err := row.Scan(&version, &name, &installedOnRaw, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	installedOn, err := time.Parse(time.RFC3339, installedOnRaw)
	if err != nil {
		return nil, err
	}

	return &ledger.AppliedMigration{
		Version:     uint64(version),
		Name:        name,
		InstalledOn: installedOn.Local(),
		Checksum:    checksum,
	}, nil
}
