package main

import (
	"fmt"

	"escabot/pkg/store"

	"github.com/spf13/cobra"
)

// newMigrateCmd creates the "escabot migrate" subcommand.
func newMigrateCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "migrate --from <snapshot-file>",
		Short: "Import statuses from a snapshot file",
		Long: "Copies statuses saved by the file backend into the state database.\n" +
			"The import runs once; later runs are no-ops.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return fmt.Errorf("--from is required")
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			migrated, err := st.MigrateFile(cmd.Context(), store.NewFileSnapshots(from))
			if err != nil {
				return err
			}
			if !migrated {
				fmt.Fprintln(cmd.OutOrStdout(), "already migrated, nothing to do")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported statuses from %s\n", from)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "snapshot file written by the file backend")

	return cmd
}
