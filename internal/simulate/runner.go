package simulate

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run generates synthetic games, submits each twice and verifies that the
// replay emits nothing.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	l := logger.Get().Named("simulate")

	l.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("games", cfg.Games),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, errors.Wrap(err, "service health check failed")
	}

	games, err := generateGames(ctx, cfg, stats)
	if err != nil {
		return stats, errors.Wrap(err, "game generation failed")
	}

	stats.First = submitGames(ctx, cfg, games, "first")
	stats.Replay = submitGames(ctx, cfg, games, "replay")

	if cfg.OutputFile != "" {
		if err := saveGamesToFile(ctx, cfg.OutputFile, games); err != nil {
			l.Warn(ctx, "failed to save games to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if err := verifyResults(stats); err != nil {
		return stats, err
	}
	l.Info(ctx, "simulation completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := newHTTPClient(cfg.Timeout)
	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return errors.Wrap(err, "connect to service")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != StatusOK {
		return errors.Newf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// saveGamesToFile writes the generated games as a JSON array.
func saveGamesToFile(ctx context.Context, filename string, games []Game) error {
	if len(games) == 0 {
		return errors.New("no games to save")
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return errors.Wrap(err, "create directory")
		}
	}
	data, err := json.MarshalIndent(games, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode games")
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return errors.Wrap(err, "write games")
	}
	logger.Get().Info(ctx, "games saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var gamesPerSecond float64
	if stats.Duration > 0 {
		gamesPerSecond = float64(stats.First.Submitted+stats.Replay.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("gamesGenerated", stats.GamesGenerated),
		logger.Int("expected", stats.Expected),
		logger.Int("firstNotifications", stats.First.Notifications),
		logger.Int("firstFailed", stats.First.Failed),
		logger.Int("replayNotifications", stats.Replay.Notifications),
		logger.Int("replayDuplicates", stats.Replay.Duplicates),
		logger.Int("replayFailed", stats.Replay.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("gamesPerSecond", gamesPerSecond))
}
