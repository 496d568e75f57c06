// SPDX-License-Identifier: Apache-2.0

package cmd

import "errors"

var errUnknownDriver = errors.New("unknown driver: must be one of sqlite3, postgres, mysql")
