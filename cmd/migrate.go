// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kegmigrate/keg/cmd/flags"
	"github.com/kegmigrate/keg/internal/lockfile"
	"github.com/kegmigrate/keg/pkg/migration"
	"github.com/kegmigrate/keg/pkg/runner"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate <directory>",
		Short:     "Apply outstanding migrations from a directory to a database",
		Example:   "keg migrate ./migrations --driver postgres --dsn postgres://localhost/app",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"directory"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if lockPath := flags.LockFile(); lockPath != "" {
				lock := lockfile.New(lockPath)
				if err := lock.Acquire(ctx); err != nil {
					return err
				}
				defer lock.Release()
			}

			migrations, err := migration.LoadDir(args[0])
			if err != nil {
				return err
			}

			conn, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer closeBackend(conn)

			r := runner.New(migrations)
			r.SetGrouped(flags.Grouped())
			r.SetLogger(runner.NewLogger())

			return r.Run(ctx, conn)
		},
	}

	return cmd
}
