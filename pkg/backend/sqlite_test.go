// SPDX-License-Identifier: Apache-2.0

package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kegmigrate/keg/pkg/backend"
	"github.com/kegmigrate/keg/pkg/ledger"
	"github.com/kegmigrate/keg/pkg/migration"
	"github.com/kegmigrate/keg/pkg/runner"
)

func TestSQLiteEndToEndMigrationRun(t *testing.T) {
	conn, err := backend.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	v1, err := migration.Parse("V1__create_widgets", "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	v2, err := migration.Parse("V2__add_price", "ALTER TABLE widgets ADD COLUMN price INTEGER")
	require.NoError(t, err)

	r := runner.New([]migration.Migration{v1, v2})
	require.NoError(t, r.Run(ctx, conn))

	current, err := conn.QueryCurrentVersion(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, uint64(2), current.Version)
	assert.Equal(t, "add_price", current.Name)

	_, err = conn.Execute(ctx, "INSERT INTO widgets (name, price) VALUES ('sprocket', 100)")
	require.NoError(t, err)

	// a second run must be a no-op.
	r2 := runner.New([]migration.Migration{v1, v2})
	require.NoError(t, r2.Run(ctx, conn))

	row := conn.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+ledger.TableName)
	var count int
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 2, count, "re-running must not insert duplicate ledger rows")
}

func TestSQLiteSingleModeFailureLeavesEarlierMigrationCommitted(t *testing.T) {
	conn, err := backend.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	v1, err := migration.Parse("V1__create_widgets", "CREATE TABLE widgets (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	v2, err := migration.Parse("V2__bad_statement", "ALTER TABLE does_not_exist ADD COLUMN x INTEGER")
	require.NoError(t, err)

	r := runner.New([]migration.Migration{v1, v2})
	err = r.Run(ctx, conn)
	require.Error(t, err)

	current, err := conn.QueryCurrentVersion(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, uint64(1), current.Version)
}
