// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kegmigrate/keg/cmd/flags"
	"github.com/kegmigrate/keg/pkg/backend"
)

// Version is the keg CLI version.
var Version = "development"

func init() {
	viper.SetEnvPrefix("KEG")
	viper.AutomaticEnv()

	flags.Register(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:          "keg",
	SilenceUsage: true,
	Version:      Version,
}

// openBackend constructs the backend.Backend named by flags.Driver against
// flags.DSN. Callers are responsible for closing it.
func openBackend(ctx context.Context) (backend.Backend, error) {
	dsn := flags.DSN()
	switch flags.Driver() {
	case "sqlite3":
		return backend.OpenSQLite(dsn)
	case "postgres":
		return backend.OpenPostgres(ctx, dsn)
	case "mysql":
		return backend.OpenMySQL(ctx, dsn)
	default:
		return nil, errUnknownDriver
	}
}

// closeBackend closes conn if it implements io.Closer-shaped Close, which
// every concrete adapter in pkg/backend does.
func closeBackend(conn backend.Backend) error {
	if closer, ok := conn.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(statusCmd())
	return rootCmd.Execute()
}
