// Package cli wires the unfurl command-line interface.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/unfurl-sh/unfurl/pkg/config"
	"github.com/unfurl-sh/unfurl/pkg/logger"
)

// RootCmd builds the root command with all subcommands attached.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "unfurl",
		Short:         "unfurl - expand sparse configuration trees into flat task lists",
		Long:          "unfurl reads sparse, inheriting configuration trees (local files, URLs, inline documents) and expands them into a fully normalized, flat list of task items.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "log in JSON format")

	rootCmd.AddCommand(ExpandCmd())
	rootCmd.AddCommand(VersionCmd())
	return rootCmd
}

// setup loads the host configuration and builds a logger from it,
// honoring flag overrides.
func setup(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	// a .env next to the invocation is picked up when present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON, _ = cmd.Flags().GetBool("log-json")
	}
	log := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		JSON:       cfg.LogJSON,
		TimeFormat: "15:04:05",
	})
	return cfg, log, nil
}
