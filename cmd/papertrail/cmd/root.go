// Package cmd provides the CLI commands for PaperTrail.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papertrail-app/papertrail/internal/config"
	"github.com/papertrail-app/papertrail/internal/logging"
	"github.com/papertrail-app/papertrail/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the papertrail CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papertrail",
		Short: "Personal reading-list tracker with hybrid search",
		Long: `PaperTrail tracks the papers you read and searches them with
hybrid retrieval: full-text and semantic rankings fused together.

Run 'papertrail init' once, then 'papertrail serve' to start the API.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("papertrail version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.papertrail/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newSearchCmd(),
		newSeedCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return cmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level := "info"
	if debugMode {
		level = "debug"
	}

	logger, cleanup, err := logging.Setup(logging.Config{
		Level:         level,
		WriteToStderr: debugMode,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

// loadConfig reads the config honoring the --config flag.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
