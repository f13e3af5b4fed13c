package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/coach/coach"
)

var (
	configFile string
	verbose    bool
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "Agile discovery coaching assistant",
	Long: `Discovery Coach helps product teams shape Epics, Features and
PI Objectives through a retrieval-augmented conversation with an LLM.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(askCmd)
}

// newLogger writes text logs to stderr so stdout stays free for the stdio
// MCP transport and chat output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config over the defaults, then applies the
// environment.
func loadConfig() (*coach.Config, error) {
	cfg := coach.DefaultConfig()
	if configFile != "" {
		loaded, err := coach.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	return &cfg, nil
}

// newCoach loads configuration and builds a Coach logging through logger.
func newCoach(ctx context.Context, logger *slog.Logger) (*coach.Coach, error) {
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	c, err := coach.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create coach: %w", err)
	}
	return c, nil
}
