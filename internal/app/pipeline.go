package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/adapters/publisher"
	"github.com/okian/touchdown/internal/adapters/repository"
	"github.com/okian/touchdown/internal/domain/classify"
	"github.com/okian/touchdown/internal/domain/dedupe"
	"github.com/okian/touchdown/internal/domain/feed"
	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/internal/domain/notify"
	"github.com/okian/touchdown/pkg/logger"
	"github.com/okian/touchdown/pkg/metrics"
)

// GameResult summarizes one pass of the pipeline over one game's feed.
type GameResult struct {
	GameID        string                    `json:"game_id"`
	Schema        model.Schema              `json:"schema,omitempty"`
	Plays         int                       `json:"plays"`
	Faults        int                       `json:"faults"`
	Credits       int                       `json:"credits"`
	Duplicates    int                       `json:"duplicates"`
	Misses        int                       `json:"misses"`
	Archived      []string                  `json:"archived,omitempty"`
	Notifications []model.NotificationEvent `json:"notifications"`
}

// Pipeline runs normalize, classify, dedup, assemble and publish for one
// game. Plays are handled strictly in feed order and a key is recorded before
// its event is published.
type Pipeline struct {
	classifier *classify.Classifier
	gate       dedupe.Gate
	assembler  *notify.Assembler
	publisher  publisher.Publisher
	archive    repository.Archive
	logger     logger.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithClassifier replaces the default classifier.
func WithClassifier(c *classify.Classifier) PipelineOption {
	return func(p *Pipeline) {
		if c != nil {
			p.classifier = c
		}
	}
}

// WithGate sets the dedup gate.
func WithGate(g dedupe.Gate) PipelineOption {
	return func(p *Pipeline) {
		if g != nil {
			p.gate = g
		}
	}
}

// WithAssembler replaces the default assembler.
func WithAssembler(a *notify.Assembler) PipelineOption {
	return func(p *Pipeline) {
		if a != nil {
			p.assembler = a
		}
	}
}

// WithPublisher sets where notifications go.
func WithPublisher(pub publisher.Publisher) PipelineOption {
	return func(p *Pipeline) {
		if pub != nil {
			p.publisher = pub
		}
	}
}

// WithArchive sets the anomaly archive.
func WithArchive(a repository.Archive) PipelineOption {
	return func(p *Pipeline) {
		if a != nil {
			p.archive = a
		}
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline returns a pipeline backed by in-memory stores and the log
// publisher unless options say otherwise.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		classifier: classify.New(),
		gate:       dedupe.NewMemoryGate(),
		assembler:  notify.New(),
		archive:    repository.NewMemoryArchive(),
		logger:     logger.Get().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.publisher == nil {
		p.publisher = publisher.NewFanout(publisher.NewLog(nil))
	}
	return p
}

// Gate returns the dedup gate in use.
func (p *Pipeline) Gate() dedupe.Gate { return p.gate }

// Archive returns the anomaly archive in use.
func (p *Pipeline) Archive() repository.Archive { return p.archive }

// Process runs doc through the pipeline for the tracked roster of gameID.
// The returned result is populated even when err is non-nil.
func (p *Pipeline) Process(ctx context.Context, gameID string, doc []byte, roster []model.RosterEntry) (*GameResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPipelineLatency(float64(time.Since(start).Milliseconds()))
	}()

	res := &GameResult{GameID: gameID, Notifications: []model.NotificationEvent{}}
	norm, err := feed.Normalize(gameID, doc)
	if err != nil {
		metrics.RecordFeedFault("malformed_document")
		return res, errors.Wrapf(err, "game %s", gameID)
	}
	res.Schema = norm.Schema
	res.Plays = len(norm.Plays)
	res.Faults = len(norm.Faults)
	metrics.RecordPlaysNormalized(string(norm.Schema), len(norm.Plays))
	for _, f := range norm.Faults {
		metrics.RecordFeedFault(faultReason(f.Err))
		p.logger.Warn(ctx, "feed fault",
			logger.String("game_id", gameID),
			logger.Int("drive", f.Drive),
			logger.Int("play", f.Play),
			logger.Error(f.Err),
		)
	}

	archived := make(map[string]bool)
	for i := range norm.Plays {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrapf(err, "game %s", gameID)
		}
		play := &norm.Plays[i]
		v := p.classifier.Classify(play, roster)
		res.Misses += len(v.Misses)
		for _, m := range v.Misses {
			p.logger.Debug(ctx, "play not credited",
				logger.String("game_id", gameID),
				logger.Int("sequence", play.Sequence),
				logger.String("player", m.PlayerName),
				logger.Error(m.Err),
			)
		}

		if v.Unknown && !archived[v.Label] {
			archived[v.Label] = true
			p.archiveUnknown(ctx, gameID, v.Label, doc, res)
		}

		for j := range v.Credits {
			c := &v.Credits[j]
			metrics.RecordOutcome(string(c.Outcome.Kind), string(c.Outcome.Role))
			res.Credits++

			key := model.NewDedupKey(play, c)
			inserted, err := p.gate.TryRecord(ctx, key)
			if err != nil {
				metrics.RecordErrorByComponent("pipeline", "dedup_store")
				p.logger.Error(ctx, "dedup store failed, aborting game",
					logger.String("game_id", gameID),
					logger.String("key", key.String()),
					logger.Error(err),
				)
				return res, errors.Mark(errors.Wrapf(err, "game %s", gameID), ErrGameAborted)
			}
			if !inserted {
				metrics.RecordDedupDuplicate()
				res.Duplicates++
				continue
			}
			metrics.RecordDedupInserted()

			ev, ok := p.assembler.Assemble(play, c)
			if !ok {
				continue
			}
			if err := p.publisher.Publish(ctx, ev); err != nil {
				p.logger.Error(ctx, "publish failed",
					logger.String("game_id", gameID),
					logger.String("id", ev.ID),
					logger.Error(err),
				)
			}
			res.Notifications = append(res.Notifications, ev)
		}
	}
	return res, nil
}

func (p *Pipeline) archiveUnknown(ctx context.Context, gameID, label string, doc []byte, res *GameResult) {
	metrics.RecordUnknownLabel(label)
	if err := p.archive.Archive(ctx, gameID, label, doc); err != nil {
		metrics.RecordErrorByComponent("pipeline", "archive")
		p.logger.Error(ctx, "archive failed",
			logger.String("game_id", gameID),
			logger.String("label", label),
			logger.Error(err),
		)
		return
	}
	res.Archived = append(res.Archived, label)
	p.logger.Info(ctx, "archived unclassified scoring play",
		logger.String("game_id", gameID),
		logger.String("label", label),
	)
}

func faultReason(err error) string {
	switch {
	case errors.Is(err, feed.ErrIncompletePlayData):
		return "incomplete_play_data"
	case errors.Is(err, feed.ErrMalformedPlay):
		return "malformed_play"
	default:
		return "other"
	}
}
