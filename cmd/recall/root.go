package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/config"
)

// configPath is populated by the root command's persistent --config flag and
// read by every subcommand.
var configPath string

// rootCmd is the Recall CLI's entry point: a bare process that, on its own,
// only prints usage. Real work happens in the serve and migrate subcommands.
var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Recall streaming audio ingestion and summarization service",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// loadConfig reads and validates the configuration at configPath, printing a
// user-facing message (rather than a raw stack of wrapped errors) when the
// file is simply missing.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "recall: config file %q not found — copy configs/example.yaml to get started\n", configPath)
		}
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process-wide structured logger at the configured
// verbosity. Installed as the slog default in serveCmd and migrateCmd.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogLevelDebug:
		lvl = slog.LevelDebug
	case config.LogLevelWarn:
		lvl = slog.LevelWarn
	case config.LogLevelError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
