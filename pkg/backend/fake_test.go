// SPDX-License-Identifier: Apache-2.0

package backend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kegmigrate/keg/pkg/backend"
	"github.com/kegmigrate/keg/pkg/ledger"
)

func TestFakeExecuteAppliesImmediately(t *testing.T) {
	f := backend.NewFake()
	ctx := context.Background()

	_, err := f.Execute(ctx, ledger.CreateTableSQL)
	require.NoError(t, err)
	assert.Equal(t, []string{ledger.CreateTableSQL}, f.Executed())
}

func TestFakeExecuteManyIsAllOrNothing(t *testing.T) {
	f := backend.NewFake()
	ctx := context.Background()
	f.FailStatementContaining("BOOM", errors.New("syntax error"))

	stmts := []string{
		"CREATE TABLE widgets (id INT)",
		"-- BOOM",
		ledger.InsertSQL(1, "initial", time.Now(), "123"),
	}

	_, err := f.ExecuteMany(ctx, stmts)
	require.Error(t, err)
	assert.Empty(t, f.Executed(), "no statement should be applied when any statement in the batch fails")
}

func TestFakeExecuteManyCommitsAllOnSuccess(t *testing.T) {
	f := backend.NewFake()
	ctx := context.Background()

	stmts := []string{
		"CREATE TABLE widgets (id INT)",
		ledger.InsertSQL(1, "initial", time.Now(), "123"),
	}
	_, err := f.ExecuteMany(ctx, stmts)
	require.NoError(t, err)
	assert.Equal(t, stmts, f.Executed())

	current, err := f.QueryCurrentVersion(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, uint64(1), current.Version)
}

func TestFakeQueryCurrentVersionEmptyLedger(t *testing.T) {
	f := backend.NewFake()
	current, err := f.QueryCurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestFakeTransactionBuffersUntilCommit(t *testing.T) {
	f := backend.NewFake()
	ctx := context.Background()

	tx, err := f.Begin(ctx)
	require.NoError(t, err)

	_, err = tx.Execute(ctx, "CREATE TABLE widgets (id INT)")
	require.NoError(t, err)

	assert.Empty(t, f.Executed(), "statements inside an uncommitted transaction must not be visible on the fake")

	require.NoError(t, tx.Commit(ctx))
	assert.Len(t, f.Executed(), 1)
}

func TestFakeTransactionAbortDiscardsPending(t *testing.T) {
	f := backend.NewFake()
	ctx := context.Background()

	tx, err := f.Begin(ctx)
	require.NoError(t, err)

	_, err = tx.Execute(ctx, "CREATE TABLE widgets (id INT)")
	require.NoError(t, err)

	aborter, ok := tx.(backend.Aborter)
	require.True(t, ok)
	require.NoError(t, aborter.Abort(ctx))

	require.NoError(t, tx.Commit(ctx))
	assert.Empty(t, f.Executed(), "statements discarded by Abort must not reappear on a later Commit")
}

func TestFakeTransactionSeesPendingVersionBeforeCommit(t *testing.T) {
	f := backend.NewFake()
	ctx := context.Background()

	tx, err := f.Begin(ctx)
	require.NoError(t, err)

	_, err = tx.Execute(ctx, ledger.InsertSQL(1, "initial", time.Now(), "123"))
	require.NoError(t, err)

	current, err := tx.QueryCurrentVersion(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, uint64(1), current.Version)

	// the parent backend must not see it yet.
	parentCurrent, err := f.QueryCurrentVersion(ctx)
	require.NoError(t, err)
	assert.Nil(t, parentCurrent)
}
