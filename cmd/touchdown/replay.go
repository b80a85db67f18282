package main

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/okian/touchdown/internal/adapters/espn"
	"github.com/okian/touchdown/internal/adapters/publisher"
	"github.com/okian/touchdown/internal/adapters/repository"
	"github.com/okian/touchdown/internal/adapters/roster"
	service "github.com/okian/touchdown/internal/app"
	"github.com/okian/touchdown/internal/domain/dedupe"
	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/internal/domain/notify"
	"github.com/okian/touchdown/pkg/logger"
)

// replayOptions are the replay command's flags.
type replayOptions struct {
	feedFile   string
	rosterFile string
	gameID     string
	passes     int
}

func replayCmd(flags *rootFlags) *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a saved feed document against a roster file offline",
		Long: "Replay runs a saved feed document (JSON, or the HTML page it was scraped from) " +
			"through the pipeline with an in-memory dedup store and prints one result per pass. " +
			"Every pass after the first should emit nothing.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			pipeline := service.NewPipeline(
				service.WithClassifier(newClassifier(cfg)),
				service.WithGate(dedupe.NewMemoryGate()),
				service.WithAssembler(notify.New(notify.WithClock(clockwork.NewRealClock()))),
				service.WithPublisher(publisher.NewFanout(publisher.NewLog(logger.Get().Named("notifications")))),
				service.WithArchive(repository.NewMemoryArchive()),
			)
			return runReplay(cmd, service.New(service.WithPipeline(pipeline)), opts)
		},
	}
	cmd.Flags().StringVar(&opts.feedFile, "feed", "", "saved feed document")
	cmd.Flags().StringVar(&opts.rosterFile, "roster", "roster.yaml", "YAML roster file")
	cmd.Flags().StringVar(&opts.gameID, "game", "", "game id (default: the only game in the roster)")
	cmd.Flags().IntVar(&opts.passes, "passes", 1, "number of times to run the document")
	_ = cmd.MarkFlagRequired("feed")
	return cmd
}

func runReplay(cmd *cobra.Command, svc *service.Service, opts *replayOptions) error {
	doc, err := readFeed(opts.feedFile)
	if err != nil {
		return err
	}
	all, err := roster.ReadFile(opts.rosterFile)
	if err != nil {
		return err
	}
	entries, err := roster.NewStatic(all, 0).Load(cmd.Context(), time.Now())
	if err != nil {
		return err
	}
	gameID, err := pickGame(opts.gameID, entries)
	if err != nil {
		return err
	}
	tracked := model.GroupByGame(entries)[gameID]

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	for i := 0; i < max(opts.passes, 1); i++ {
		res, err := svc.Ingest(cmd.Context(), gameID, doc, tracked)
		if err != nil {
			return errors.Wrapf(err, "pass %d", i+1)
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}

// readFeed loads a feed document, extracting the embedded document when the
// file is the scraped HTML page.
func readFeed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open feed %s", path)
	}
	defer func() { _ = f.Close() }()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read feed %s", path)
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		return trimmed, nil
	}
	return espn.ExtractDocument(raw)
}

// pickGame resolves the game to replay. Without an explicit id the roster must
// cover exactly one game.
func pickGame(gameID string, entries []model.RosterEntry) (string, error) {
	games := model.GroupByGame(entries)
	if gameID != "" {
		if len(games[gameID]) == 0 {
			return "", errors.Wrapf(service.ErrNoRoster, "game %s", gameID)
		}
		return gameID, nil
	}
	ids := games.IDs()
	if len(ids) != 1 {
		return "", errors.Newf("roster covers %d games; pass --game", len(ids))
	}
	return ids[0], nil
}
