package publisher

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/pkg/logger"
)

// JetStreamConfig configures the JetStream publisher.
type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	DuplicateWindow time.Duration
}

// DefaultJetStreamConfig returns the defaults used by serve.
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "TOUCHDOWN",
		SubjectPrefix:   "touchdown.notifications",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          7 * 24 * time.Hour,
		DuplicateWindow: 2 * time.Hour,
	}
}

type msgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStream publishes events to a NATS JetStream stream. The dedup key is the
// message id, so the stream drops duplicates inside its window as well.
type JetStream struct {
	nc     *nats.Conn
	js     msgPublisher
	config JetStreamConfig
	logger logger.Logger
}

// DialJetStream connects to NATS and makes sure the stream exists.
func DialJetStream(ctx context.Context, cfg JetStreamConfig) (*JetStream, error) {
	l := logger.Get().Named("nats")
	opts := []nats.Option{
		nats.Name("touchdown"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn(context.Background(), "nats disconnected", logger.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info(context.Background(), "nats reconnected", logger.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "connect to nats")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "create jetstream context")
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{cfg.SubjectPrefix + ".>"},
		Retention:  jetstream.LimitsPolicy,
		Storage:    jetstream.FileStorage,
		MaxAge:     cfg.MaxAge,
		Duplicates: cfg.DuplicateWindow,
	}); err != nil {
		nc.Close()
		return nil, errors.Wrapf(err, "ensure stream %s", cfg.StreamName)
	}

	p := NewJetStream(js, cfg)
	p.nc = nc
	p.logger = l
	return p, nil
}

// NewJetStream wraps an existing JetStream context.
func NewJetStream(js msgPublisher, cfg JetStreamConfig) *JetStream {
	return &JetStream{js: js, config: cfg, logger: logger.Get().Named("nats")}
}

// Name implements Publisher.
func (p *JetStream) Name() string { return "nats" }

// Subject returns the subject an event is published on.
func (p *JetStream) Subject(ev *model.NotificationEvent) string {
	return p.config.SubjectPrefix + "." + ev.GameID + "." + string(ev.Kind)
}

// Message builds the NATS message for ev.
func (p *JetStream) Message(ev *model.NotificationEvent) (*nats.Msg, error) {
	data, err := Encode(ev)
	if err != nil {
		return nil, err
	}
	msg := nats.NewMsg(p.Subject(ev))
	msg.Data = data
	msg.Header.Set("Event-ID", ev.ID)
	msg.Header.Set("Game-ID", ev.GameID)
	msg.Header.Set("Owner-ID", strconv.Itoa(ev.OwnerID))
	msg.Header.Set("Kind", string(ev.Kind))
	return msg, nil
}

// Publish implements Publisher.
func (p *JetStream) Publish(ctx context.Context, ev model.NotificationEvent) error {
	msg, err := p.Message(&ev)
	if err != nil {
		return err
	}
	ack, err := p.js.PublishMsg(ctx, msg,
		jetstream.WithMsgID(ev.Key().String()),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return errors.Wrapf(err, "publish %s", msg.Subject)
	}
	p.logger.Debug(ctx, "published to jetstream",
		logger.String("subject", msg.Subject),
		logger.Int("sequence", int(ack.Sequence)),
		logger.Bool("duplicate", ack.Duplicate),
	)
	return nil
}

// Close drains the connection when this publisher owns it.
func (p *JetStream) Close() error {
	if p.nc != nil {
		return p.nc.Drain()
	}
	return nil
}
