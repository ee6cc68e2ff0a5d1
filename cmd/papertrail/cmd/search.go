package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papertrail-app/papertrail/internal/embed"
	"github.com/papertrail-app/papertrail/internal/search"
	"github.com/papertrail-app/papertrail/internal/store"
	"github.com/papertrail-app/papertrail/internal/ui"
)

// newSearchCmd creates the search command. It searches the local
// database directly, without going through the API server. The CLI
// runs as the machine owner, so private papers are included.
func newSearchCmd() *cobra.Command {
	var limit int
	var lexicalOnly bool
	var jsonOutput bool
	var username string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search your papers from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

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

			// The CLI always degrades gracefully when the backend is down.
			searchCfg := cfg.Search
			searchCfg.LexicalFallback = true

			embedder, err := embed.New(cmd.Context(), cfg.Embeddings)
			if err != nil {
				embedder = embed.NewStaticEmbedder()
				lexicalOnly = true
			}
			defer embedder.Close()

			vis := store.Anonymous()
			if username != "" {
				u, err := st.GetUserByUsername(cmd.Context(), username)
				if err != nil {
					return err
				}
				vis = store.ForUser(u.ID)
			}

			engine := search.NewEngine(st, st, st, embedder, searchCfg, nil)
			opts := search.Options{Limit: limit, Visibility: vis}

			renderer := ui.NewRenderer(cmd.OutOrStdout())
			var results *search.Results
			if lexicalOnly {
				results, err = engine.Lexical(cmd.Context(), query, opts)
			} else {
				results, err = engine.Search(cmd.Context(), query, opts)
			}
			if err != nil {
				renderer.RenderError(err)
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			renderer.RenderResults(query, results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&lexicalOnly, "lexical", false, "Keyword search only, skip the embedder")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().StringVarP(&username, "user", "u", "", "Search as this user (includes their private papers)")

	return cmd
}
