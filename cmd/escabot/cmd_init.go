package main

import (
	"errors"
	"fmt"
	"os"

	"escabot/pkg/config"

	"github.com/spf13/cobra"
)

// newInitCmd creates the "escabot init" subcommand.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long:  "Creates the escabot home directory, a configuration file with every\noption at its default, and the state database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			w := cmd.OutOrStdout()

			if _, err := os.Stat(paths.ConfigPath); err == nil && !force {
				fmt.Fprintf(w, "config already exists at %s (use --force to overwrite)\n", paths.ConfigPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat config: %w", err)
			} else {
				if err := config.Write(paths.ConfigPath, config.Default()); err != nil {
					return err
				}
				fmt.Fprintf(w, "wrote %s\n", paths.ConfigPath)
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			fmt.Fprintf(w, "state database ready at %s\n", paths.DBPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
