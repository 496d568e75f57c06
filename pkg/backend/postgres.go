// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/lib/pq"

	"github.com/kegmigrate/keg/pkg/ledger"
)

const (
	lockNotAvailableErrorCode pq.ErrorCode = "55P03"
	maxBackoffDuration                     = 1 * time.Minute
	backoffInterval                        = 1 * time.Second
)

// Postgres is the transactional-server adapter: it has full transactional
// DDL, so begin/commit map directly onto *sql.DB transactions. Statements
// issued outside a transaction are retried with exponential backoff on
// Postgres's lock_not_available error, mirroring how a busy server is
// expected to be handled by a well-behaved client.
type Postgres struct {
	DB *sql.DB
}

// OpenPostgres opens dsn with the "postgres" driver (lib/pq) and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Close() error {
	return p.DB.Close()
}

func (p *Postgres) Execute(ctx context.Context, stmt string) (int64, error) {
	return retryingExec(ctx, p.DB, stmt)
}

func (p *Postgres) ExecuteMany(ctx context.Context, stmts []string) (int64, error) {
	tx, err := p.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
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

func (p *Postgres) QueryCurrentVersion(ctx context.Context) (*ledger.AppliedMigration, error) {
	return decodeCurrentVersion(ctx, p.DB, ledger.CurrentVersionSQL)
}

func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) Execute(ctx context.Context, stmt string) (int64, error) {
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

func (t *postgresTx) QueryCurrentVersion(ctx context.Context) (*ledger.AppliedMigration, error) {
	return decodeCurrentVersion(ctx, t.tx, ledger.CurrentVersionSQL)
}

func (t *postgresTx) Commit(context.Context) error {
	return t.tx.Commit()
}

// Abort implements backend.Aborter, releasing the underlying *sql.Tx when
// the transaction is abandoned without a commit.
func (t *postgresTx) Abort(context.Context) error {
	return t.tx.Rollback()
}

type queryRowContexter interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// decodeCurrentVersion runs the canonical current-version query and decodes
// column 0 as int64, 1 and 3 as text, and 2 as RFC-3339 text re-parsed into
// a timezone-aware time in the runner's local zone.
func decodeCurrentVersion(ctx context.Context, q queryRowContexter, query string) (*ledger.AppliedMigration, error) {
	var version int64
	var name, installedOnRaw, checksum string

	row := q.QueryRowContext(ctx, query)
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

type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// retryingExec wraps ExecContext, retrying on Postgres's lock_not_available
// error with exponential backoff.
func retryingExec(ctx context.Context, db execContexter, stmt string) (int64, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		res, err := db.ExecContext(ctx, stmt)
		if err == nil {
			n, err := res.RowsAffected()
			if err != nil {
				return 0, nil
			}
			return n, nil
		}

		pqErr := &pq.Error{}
		if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailableErrorCode {
			if sleepErr := sleepCtx(ctx, b.Duration()); sleepErr != nil {
				return 0, sleepErr
			}
			continue
		}

		return 0, err
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
