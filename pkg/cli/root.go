// Package cli implements the lakewap command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lakewap/internal/config"
	"lakewap/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var suitePath string

	rootCmd := &cobra.Command{
		Use:           "lakewap",
		Short:         "Write-audit-publish ingestion for branch-versioned lakehouse tables",
		Long: "lakewap ingests data onto an isolated branch, audits it with a tiered\n" +
			"quality-check battery, and publishes it to trunk only when the gate passes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&suitePath, "suite", "", "Path to the quality-check suite YAML")

	rootCmd.AddCommand(newIngestCmd(&suitePath))
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newChecksCmd())
	rootCmd.AddCommand(newScheduleCmd(&suitePath))
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// loadEnv resolves config from the environment and builds the root logger.
func loadEnv() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	return cfg, logger, nil
}

// loadSuite reads the check suite named by --suite. An empty path means an
// empty suite: the row-count floor still applies on every run.
func loadSuite(path string) ([]domain.QualityCheckSpec, error) {
	if path == "" {
		return nil, nil
	}
	return config.LoadSuite(path)
}
