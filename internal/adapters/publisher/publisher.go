// Package publisher delivers notification events to downstream consumers.
// Publishers never retry; callers log failures and move on.
package publisher

import (
	"context"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/pkg/logger"
	"github.com/okian/touchdown/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher hands a notification event to a transport.
type Publisher interface {
	Publish(ctx context.Context, ev model.NotificationEvent) error
	Name() string
}

// Encode renders ev as its wire JSON.
func Encode(ev *model.NotificationEvent) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "event %s", ev.ID), ErrEncode)
	}
	return b, nil
}

// Log writes each event to the structured log.
type Log struct {
	logger logger.Logger
}

// NewLog returns a publisher that logs events. A nil logger uses the global one.
func NewLog(l logger.Logger) *Log {
	if l == nil {
		l = logger.Get().Named("notifications")
	}
	return &Log{logger: l}
}

// Name implements Publisher.
func (p *Log) Name() string { return "log" }

// Publish implements Publisher.
func (p *Log) Publish(ctx context.Context, ev model.NotificationEvent) error {
	p.logger.Info(ctx, ev.Message,
		logger.String("id", ev.ID),
		logger.String("game_id", ev.GameID),
		logger.Int("quarter", ev.Quarter),
		logger.String("clock", ev.Clock),
		logger.String("player", ev.PlayerName),
		logger.Int("owner_id", ev.OwnerID),
		logger.String("kind", string(ev.Kind)),
		logger.String("role", string(ev.Role)),
		logger.Int("yards", ev.Yards),
	)
	return nil
}

// Fanout publishes to every target in order. Every target is attempted; the
// failures are joined.
type Fanout struct {
	targets []Publisher
	logger  logger.Logger
}

// NewFanout combines targets. Nil targets are dropped.
func NewFanout(targets ...Publisher) *Fanout {
	f := &Fanout{logger: logger.Get().Named("publisher")}
	for _, t := range targets {
		if t != nil {
			f.targets = append(f.targets, t)
		}
	}
	return f
}

// Name implements Publisher.
func (f *Fanout) Name() string { return "fanout" }

// Targets returns the names of the combined publishers.
func (f *Fanout) Targets() []string {
	names := make([]string, len(f.targets))
	for i, t := range f.targets {
		names[i] = t.Name()
	}
	return names
}

// Publish implements Publisher.
func (f *Fanout) Publish(ctx context.Context, ev model.NotificationEvent) error {
	var errs error
	for _, t := range f.targets {
		if err := t.Publish(ctx, ev); err != nil {
			metrics.RecordPublishError(t.Name())
			f.logger.Warn(ctx, "publish failed",
				logger.String("publisher", t.Name()),
				logger.String("id", ev.ID),
				logger.Error(err),
			)
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "publisher %s", t.Name()))
			continue
		}
		metrics.RecordPublished(t.Name())
	}
	return errs
}
