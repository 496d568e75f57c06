// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kegmigrate/keg/pkg/ledger"
)

// SQLite is the embedded file-store adapter, used for single-process,
// single-file databases. SQLite supports real transactional DDL, so begin/
// commit map onto genuine *sql.Tx transactions rather than no-ops.
type SQLite struct {
	DB *sql.DB
}

// OpenSQLite opens path (or ":memory:") with the "sqlite3" driver.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &SQLite{DB: db}, nil
}

func (s *SQLite) Close() error {
	return s.DB.Close()
}

func (s *SQLite) Execute(ctx context.Context, stmt string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, stmt)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// ExecuteMany wraps the statement list in SQLite's native transaction
// primitive, committing once at the end.
func (s *SQLite) ExecuteMany(ctx context.Context, stmts []string) (int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
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

func (s *SQLite) QueryCurrentVersion(ctx context.Context) (*ledger.AppliedMigration, error) {
	return s.decodeCurrentVersion(ctx, s.DB)
}

func (s *SQLite) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{sqlite: s, tx: tx}, nil
}

func (s *SQLite) decodeCurrentVersion(ctx context.Context, q queryRowContexter) (*ledger.AppliedMigration, error) {
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

type sqliteTx struct {
	sqlite *SQLite
	tx     *sql.Tx
}

func (t *sqliteTx) Execute(ctx context.Context, stmt string) (int64, error) {
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

func (t *sqliteTx) QueryCurrentVersion(ctx context.Context) (*ledger.AppliedMigration, error) {
	return t.sqlite.decodeCurrentVersion(ctx, t.tx)
}

func (t *sqliteTx) Commit(context.Context) error {
	return t.tx.Commit()
}

func (t *sqliteTx) Abort(context.Context) error {
	return t.tx.Rollback()
}
