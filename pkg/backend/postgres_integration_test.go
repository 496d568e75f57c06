// SPDX-License-Identifier: Apache-2.0

//go:build integration

package backend_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kegmigrate/keg/internal/testutils"
	"github.com/kegmigrate/keg/pkg/backend"
	"github.com/kegmigrate/keg/pkg/migration"
	"github.com/kegmigrate/keg/pkg/runner"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

func TestPostgresEndToEndGroupedMigrationRun(t *testing.T) {
	testutils.WithPostgresDatabase(t, func(dsn string, _ *sql.DB) {
		ctx := context.Background()

		conn, err := backend.OpenPostgres(ctx, dsn)
		require.NoError(t, err)
		defer conn.Close()

		v1, err := migration.Parse("V1__create_widgets", "CREATE TABLE widgets (id SERIAL PRIMARY KEY, name TEXT)")
		require.NoError(t, err)
		v2, err := migration.Parse("V2__add_price", "ALTER TABLE widgets ADD COLUMN price INTEGER")
		require.NoError(t, err)

		r := runner.New([]migration.Migration{v1, v2})
		r.SetGrouped(true)
		require.NoError(t, r.Run(ctx, conn))

		current, err := conn.QueryCurrentVersion(ctx)
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, uint64(2), current.Version)
	})
}
