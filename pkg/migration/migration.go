// SPDX-License-Identifier: Apache-2.0

// Package migration defines the immutable Migration value type: identity
// parsing from a filename, a deterministic checksum, and the total order
// migrations are applied in.
package migration

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strconv"
)

// nameRE matches filenames of the form V<version>__<name>, where <version>
// may contain digits and dots (the dots are tolerated by the matcher but
// must parse as a single unsigned integer) and <name> is a word-character
// identifier.
var nameRE = regexp.MustCompile(`^V([0-9.]+)__(\w+)$`)

// Migration is an immutable, ordered schema change identified by a version
// and a name. The zero value is not valid; construct one with Parse.
type Migration struct {
	version  uint64
	name     string
	sql      string
	checksum uint64
}

// Parse extracts a Migration from a filename (without extension) and its SQL
// body. The filename must match V<version>__<name>; the version group must
// parse as an unsigned integer.
func Parse(filename, sql string) (Migration, error) {
	groups := nameRE.FindStringSubmatch(filename)
	if groups == nil {
		return Migration{}, &InvalidNameError{Filename: filename}
	}

	version, err := strconv.ParseUint(groups[1], 10, 64)
	if err != nil {
		return Migration{}, &InvalidVersionError{Filename: filename, Raw: groups[1]}
	}
	if version == 0 {
		return Migration{}, &InvalidVersionError{Filename: filename, Raw: groups[1]}
	}

	name := groups[2]
	return Migration{
		version:  version,
		name:     name,
		sql:      sql,
		checksum: computeChecksum(name, version, sql),
	}, nil
}

// computeChecksum feeds name, then version (as 8 bytes big-endian), then sql
// into a 64-bit FNV-1a hash, in that exact order and with no separators. The
// algorithm, field order, and byte encoding are part of this package's
// contract: ledger rows persist the decimal rendering of this value, so it
// must never change without a migration of the ledger itself.
func computeChecksum(name string, version uint64, sql string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	var versionBytes [8]byte
	binary.BigEndian.PutUint64(versionBytes[:], version)
	_, _ = h.Write(versionBytes[:])
	_, _ = h.Write([]byte(sql))
	return h.Sum64()
}

// Version returns the migration's version.
func (m Migration) Version() uint64 { return m.version }

// Name returns the migration's short name.
func (m Migration) Name() string { return m.name }

// SQL returns the migration's raw SQL body, verbatim.
func (m Migration) SQL() string { return m.sql }

// Checksum returns the 64-bit deterministic checksum of (name, version, sql).
func (m Migration) Checksum() uint64 { return m.checksum }

// ChecksumString renders Checksum as its decimal string representation, the
// form persisted in the ledger.
func (m Migration) ChecksumString() string {
	return strconv.FormatUint(m.checksum, 10)
}

// String renders the migration back into its canonical filename form,
// V<version>__<name>.
func (m Migration) String() string {
	return fmt.Sprintf("V%d__%s", m.version, m.name)
}

// Less reports whether m sorts strictly before other under the total order:
// ascending by version. Equal versions are duplicates and compare as equal,
// so Less returns false for both orderings.
func (m Migration) Less(other Migration) bool {
	return m.version < other.version
}

// Equal reports whether m and other share the same version. Per the data
// model invariant, two migrations with equal version are considered equal
// regardless of name, sql, or checksum.
func (m Migration) Equal(other Migration) bool {
	return m.version == other.version
}

// SortByVersion sorts migrations in place, strictly ascending by version,
// stably (migrations with equal versions retain their relative order, so
// callers can detect duplicates by scanning for adjacent equal versions).
func SortByVersion(migrations []Migration) {
	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Less(migrations[j])
	})
}
