// Command touchdown polls live play-by-play feeds and alerts fantasy owners
// when their players score or break a big play.
//
// Usage:
//
//	touchdown serve
//	touchdown poll
//	touchdown replay --feed game.json --roster roster.yaml
//	touchdown migrate up
//	touchdown simulate --url http://localhost:9080 --games 100
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/touchdown/internal/config"
	"github.com/okian/touchdown/pkg/logger"
)

// rootFlags are shared by every sub-command.
type rootFlags struct {
	envFiles   []string
	configFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "touchdown",
		Short:         "Touchdown and big-play alerts for fantasy rosters",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, "dotenv files loaded before configuration")
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "YAML config file (overrides TOUCHDOWN_CONFIG)")

	root.AddCommand(serveCmd(flags))
	root.AddCommand(pollCmd(flags))
	root.AddCommand(replayCmd(flags))
	root.AddCommand(migrateCmd(flags))
	root.AddCommand(simulateCmd())
	return root
}

// loadConfig loads dotenv files and configuration, then applies the logging
// settings.
func loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(flags.envFiles...); err != nil {
		return nil, err
	}
	if flags.configFile != "" {
		if err := os.Setenv("TOUCHDOWN_CONFIG", flags.configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(os.Stderr)); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}
