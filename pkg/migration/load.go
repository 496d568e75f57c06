// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sqlExtension is the only migration file extension this package resolves
// itself: a raw SQL file whose contents are the migration body verbatim.
// The module-source extension named in the filename format is resolved by
// an external build-time discovery tool, not by this package.
const sqlExtension = ".sql"

// LoadDir reads every *.sql file directly inside dir, parses each by its
// filename (without extension), and returns the migrations sorted by
// version. Subdirectories are not traversed.
func LoadDir(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %q: %w", dir, err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != sqlExtension {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), sqlExtension)
		body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration file %q: %w", entry.Name(), err)
		}

		m, err := Parse(name, string(body))
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}

	SortByVersion(migrations)
	return migrations, nil
}
