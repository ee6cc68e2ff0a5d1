package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papertrail-app/papertrail/internal/auth"
	"github.com/papertrail-app/papertrail/internal/store"
)

// newSeedCmd creates the seed command.
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate an empty database with demo users and papers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(store.Options{
				Path:     cfg.DatabasePath(),
				CacheMB:  cfg.Storage.CacheMB,
				LockPath: cfg.LockPath(),
			})
			if err != nil {
				return err
			}
			defer st.Close()

			if err := store.Seed(cmd.Context(), st, auth.HashPassword); err != nil {
				return err
			}

			papers, _, err := st.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database ready with %d papers (demo login: ada / papertrail).\n", papers)
			return nil
		},
	}
}
