package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/config"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/db"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cutd",
		Short:         "Detect and manage removable cuts in video transcripts",
		Version:       fmt.Sprintf("%s (%s, built %s)", config.Version, config.GitCommit, config.BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Path to a YAML config file (overrides CUTD_CONFIG)")

	root.AddCommand(
		newServeCmd(),
		newDetectCmd(),
		newTimelineCmd(),
		newMigrateCmd(),
		newImportCmd(),
		newTokenCmd(),
		newCreditsCmd(),
	)
	return root
}

// env is what every subcommand needs before doing its own work.
type env struct {
	cfg    *config.EnvConfig
	logger *slog.Logger
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Log to stderr so commands that print results keep stdout clean.
	logger := logging.NewLoggerTo(os.Stderr, cfg.LogLevel())
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) openDB() (*db.DB, error) {
	if err := os.MkdirAll(e.cfg.DataDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	database, err := db.New(e.cfg.DatabaseURL(), e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database, nil
}
