// SPDX-License-Identifier: Apache-2.0

// Package ledger defines the keg_schema_history table: its canonical DDL,
// the queries used to read and append to it, and the row type those queries
// decode into. Every backend adapter executes exactly these query strings so
// that the ledger is byte-identical across dialects.
package ledger

import (
	"fmt"
	"time"
)

// TableName is the single table this engine persists state in.
const TableName = "keg_schema_history"

// CreateTableSQL is the idempotent DDL that ensures the ledger exists.
const CreateTableSQL = `CREATE TABLE IF NOT EXISTS keg_schema_history(
  version       INTEGER PRIMARY KEY,
  name          VARCHAR(255),
  installed_on  VARCHAR(255),
  checksum      VARCHAR(255));`

// CurrentVersionSQL returns at most one row: the row whose version equals
// MAX(version). No rows means no migrations have been applied yet.
const CurrentVersionSQL = `SELECT version, name, installed_on, checksum FROM keg_schema_history WHERE version = (SELECT MAX(version) FROM keg_schema_history)`

// AppliedMigration is a single row of the ledger.
type AppliedMigration struct {
	Version     uint64
	Name        string
	InstalledOn time.Time
	Checksum    string
}

// Zero is the value Runner substitutes when the ledger has no rows: version
// 0, empty name and checksum. Callers should not persist it.
var Zero = AppliedMigration{}

// InsertSQL renders the canonical ledger-insert statement for one applied
// migration. installedOn is the moment of application, rendered as RFC 3339
// with timezone offset. name and checksum are interpolated unquoted apart
// from the surrounding single quotes: the filename grammar restricts name to
// [A-Za-z0-9_]+ and checksum is always a decimal string, so neither can ever
// contain a quote character.
func InsertSQL(version uint64, name string, installedOn time.Time, checksum string) string {
	return fmt.Sprintf(
		"INSERT INTO keg_schema_history (version, name, installed_on, checksum) VALUES (%d, '%s', '%s', '%s')",
		version, name, installedOn.Format(time.RFC3339), checksum,
	)
}
