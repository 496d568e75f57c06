// SPDX-License-Identifier: Apache-2.0

package migration

import "fmt"

// InvalidNameError is returned by Parse when a filename does not match the
// V<version>__<name> grammar.
type InvalidNameError struct {
	Filename string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("%s: migration name must be in the format V{version}__{name}", e.Filename)
}

// InvalidVersionError is returned by Parse when the version group of an
// otherwise well-formed filename does not parse to a positive unsigned
// integer.
type InvalidVersionError struct {
	Filename string
	Raw      string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("%s: migration version %q must be a valid positive integer", e.Filename, e.Raw)
}
