package main

import (
	"context"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/touchdown/internal/simulate"
)

// Simulation defaults.
const (
	defaultGames       = 100
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSimDuration = 10 * time.Minute
)

func simulateCmd() *cobra.Command {
	cfg := &simulate.Config{}
	var logFile, logFormat string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Submit synthetic game feeds twice and verify the replay emits nothing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			closer, err := simulate.SetupLogging(logFile, logFormat)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultSimDuration)
			defer cancel()
			_, err = simulate.Run(ctx, cfg)
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	cmd.Flags().IntVar(&cfg.Games, "games", defaultGames, "number of synthetic games")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "concurrent submitters")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().IntVar(&cfg.Season, "season", time.Now().Year(), "season stamped on generated roster entries")
	cmd.Flags().StringVar(&cfg.OutputFile, "output", "", "write the generated games to this file")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "log every submission")
	cmd.Flags().StringVar(&logFile, "log", "", "log file (default: simulate_TIMESTAMP.log)")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "text or json")
	return cmd
}
