package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papertrail-app/papertrail/internal/store"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show corpus statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(store.Options{
				Path:    cfg.DatabasePath(),
				CacheMB: cfg.Storage.CacheMB,
			})
			if err != nil {
				return err
			}
			defer st.Close()

			papers, embeddings, err := st.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database:   %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "papers:     %d\n", papers)
			fmt.Fprintf(out, "embeddings: %d\n", embeddings)
			if pending := papers - embeddings; pending > 0 {
				fmt.Fprintf(out, "pending:    %d (will embed when the server runs)\n", pending)
			}
			return nil
		},
	}
}
