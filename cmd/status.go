// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kegmigrate/keg/pkg/backend"
)

type statusLine struct {
	Version     uint64 `json:"version"`
	Name        string `json:"name"`
	InstalledOn string `json:"installed_on,omitempty"`
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the currently applied migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			conn, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer closeBackend(conn)

			if err := backend.EnsureLedger(ctx, conn); err != nil {
				return backend.Wrap("error asserting migrations table", err)
			}

			current, err := backend.CurrentVersion(ctx, conn)
			if err != nil {
				return backend.Wrap("error getting current schema version", err)
			}

			line := statusLine{Version: current.Version, Name: current.Name}
			if current.Version > 0 {
				line.InstalledOn = current.InstalledOn.Format("2006-01-02T15:04:05Z07:00")
			}

			out, err := json.MarshalIndent(line, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
