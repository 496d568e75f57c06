// SPDX-License-Identifier: Apache-2.0

// Package flags centralizes the viper keys backing the root command's
// persistent flags, so subcommands read configuration the same way
// regardless of whether it came from a flag or a KEG_-prefixed env var.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DSN returns the configured database connection string.
func DSN() string {
	return viper.GetString("DSN")
}

// Driver returns the configured backend driver name: sqlite3, postgres, or
// mysql.
func Driver() string {
	return viper.GetString("DRIVER")
}

// Grouped reports whether the grouped (single-transaction) execution
// strategy was requested.
func Grouped() bool {
	return viper.GetBool("GROUPED")
}

// LockFile returns the path to an optional advisory lock file, or "" if
// none was configured.
func LockFile() string {
	return viper.GetString("LOCK_FILE")
}

// Register adds the connection and execution flags to cmd and binds each to
// its KEG_-prefixed viper key.
func Register(cmd *cobra.Command) {
	cmd.PersistentFlags().String("dsn", "", "Database connection string")
	cmd.PersistentFlags().String("driver", "postgres", "Backend driver: sqlite3, postgres, or mysql")
	cmd.PersistentFlags().Bool("grouped", false, "Apply all pending migrations in a single transaction")
	cmd.PersistentFlags().String("lock-file", "", "Optional path to an advisory lock file serializing concurrent runs")

	viper.BindPFlag("DSN", cmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("DRIVER", cmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("GROUPED", cmd.PersistentFlags().Lookup("grouped"))
	viper.BindPFlag("LOCK_FILE", cmd.PersistentFlags().Lookup("lock-file"))
}
