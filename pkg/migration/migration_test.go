// SPDX-License-Identifier: Apache-2.0

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kegmigrate/keg/pkg/migration"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantVer  uint64
		wantName string
	}{
		{"simple", "V1__initial", 1, "initial"},
		{"multi digit", "V42__add_country_field_to_artists", 42, "add_country_field_to_artists"},
		{"dotted version", "V1.2.3__dotted", 123, "dotted"},
		{"trailing underscore name", "V7__add_year_field_", 7, "add_year_field_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := migration.Parse(tt.filename, "SELECT 1;")
			require.NoError(t, err)
			assert.Equal(t, tt.wantVer, m.Version())
			assert.Equal(t, tt.wantName, m.Name())
			assert.Equal(t, tt.filename, m.String())
		})
	}
}

func TestParseInvalidName(t *testing.T) {
	tests := []string{
		"initial",
		"1__initial",
		"V1_initial",
		"V__initial",
		"Vabc__initial",
	}

	for _, filename := range tests {
		t.Run(filename, func(t *testing.T) {
			_, err := migration.Parse(filename, "SELECT 1;")
			require.Error(t, err)
			var invalidName *migration.InvalidNameError
			assert.ErrorAs(t, err, &invalidName)
		})
	}
}

func TestParseInvalidVersion(t *testing.T) {
	// "." alone matches [0-9.]+ but does not parse as an integer.
	_, err := migration.Parse("V.__initial", "SELECT 1;")
	require.Error(t, err)
	var invalidVersion *migration.InvalidVersionError
	assert.ErrorAs(t, err, &invalidVersion)

	// Embedded dots match the grammar, but "1.2.3" is not an integer either.
	_, err = migration.Parse("V1.2.3__dotted", "SELECT 1;")
	require.Error(t, err)
	assert.ErrorAs(t, err, &invalidVersion)
}

func TestParseZeroVersionRejected(t *testing.T) {
	_, err := migration.Parse("V0__initial", "SELECT 1;")
	require.Error(t, err)
	var invalidVersion *migration.InvalidVersionError
	assert.ErrorAs(t, err, &invalidVersion)
}

func TestChecksumDeterminism(t *testing.T) {
	a, err := migration.Parse("V4__add_year_field_to_cars", "ALTER TABLE cars ADD year INTEGER;")
	require.NoError(t, err)

	b, err := migration.Parse("V4__add_year_field_to_cars", "ALTER TABLE cars ADD year INTEGER;")
	require.NoError(t, err)

	assert.Equal(t, a.Checksum(), b.Checksum())
	assert.Equal(t, a.ChecksumString(), b.ChecksumString())
	assert.NotZero(t, a.Checksum())
}

func TestChecksumSensitiveToEachField(t *testing.T) {
	base, err := migration.Parse("V1__initial", "CREATE TABLE t(id int)")
	require.NoError(t, err)

	differentName, err := migration.Parse("V1__other", "CREATE TABLE t(id int)")
	require.NoError(t, err)
	assert.NotEqual(t, base.Checksum(), differentName.Checksum())

	differentVersion, err := migration.Parse("V2__initial", "CREATE TABLE t(id int)")
	require.NoError(t, err)
	assert.NotEqual(t, base.Checksum(), differentVersion.Checksum())

	differentSQL, err := migration.Parse("V1__initial", "CREATE TABLE t(id int, name text)")
	require.NoError(t, err)
	assert.NotEqual(t, base.Checksum(), differentSQL.Checksum())
}

func TestChecksumNotNormalized(t *testing.T) {
	a, err := migration.Parse("V1__initial", "CREATE TABLE t(id int)")
	require.NoError(t, err)

	b, err := migration.Parse("V1__initial", "CREATE TABLE  t(id int)")
	require.NoError(t, err)

	assert.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestOrderingAndDuplicates(t *testing.T) {
	v2, err := migration.Parse("V2__second", "SELECT 2;")
	require.NoError(t, err)
	v1, err := migration.Parse("V1__first", "SELECT 1;")
	require.NoError(t, err)
	dup, err := migration.Parse("V1__duplicate", "SELECT 1;")
	require.NoError(t, err)

	migrations := []migration.Migration{v2, v1, dup}
	migration.SortByVersion(migrations)

	require.Len(t, migrations, 3)
	assert.Equal(t, uint64(1), migrations[0].Version())
	assert.Equal(t, uint64(1), migrations[1].Version())
	assert.Equal(t, uint64(2), migrations[2].Version())
	assert.True(t, migrations[0].Equal(migrations[1]))
	assert.True(t, v1.Less(v2))
	assert.False(t, v2.Less(v1))
}
