package main

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"

	"github.com/okian/touchdown/internal/adapters/espn"
	"github.com/okian/touchdown/internal/adapters/publisher"
	"github.com/okian/touchdown/internal/adapters/repository"
	"github.com/okian/touchdown/internal/adapters/repository/postgres"
	redisstore "github.com/okian/touchdown/internal/adapters/repository/redis"
	"github.com/okian/touchdown/internal/adapters/roster"
	service "github.com/okian/touchdown/internal/app"
	"github.com/okian/touchdown/internal/config"
	"github.com/okian/touchdown/internal/domain/classify"
	"github.com/okian/touchdown/internal/domain/dedupe"
	"github.com/okian/touchdown/internal/domain/notify"
	"github.com/okian/touchdown/internal/domain/threshold"
	"github.com/okian/touchdown/pkg/logger"
)

// streamMaxLen caps the Redis notification stream.
const streamMaxLen = 10_000

// stack holds every component built from configuration and what must be
// closed when the process exits.
type stack struct {
	cfg     *config.Config
	clock   clockwork.Clock
	svc     *service.Service
	hub     *publisher.Hub
	fanout  *publisher.Fanout
	closers []io.Closer
}

// Close releases connections in reverse order of creation.
func (s *stack) Close() error {
	var errs error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = errors.CombineErrors(errs, s.closers[i].Close())
	}
	return errs
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// stackOptions selects optional parts of the stack.
type stackOptions struct {
	withHub bool
	clock   clockwork.Clock
}

// buildStack connects the configured backends and assembles the service.
func buildStack(ctx context.Context, cfg *config.Config, opts stackOptions) (_ *stack, err error) {
	l := logger.Get()
	st := &stack{cfg: cfg, clock: opts.clock}
	if st.clock == nil {
		st.clock = clockwork.NewRealClock()
	}
	defer func() {
		if err != nil {
			_ = st.Close()
		}
	}()

	var pool *postgres.Pool
	if cfg.Uses(config.BackendPostgres) {
		pool, err = postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolConfig{MaxConns: int32(cfg.WorkerCount) + 2})
		if err != nil {
			return nil, errors.Wrap(err, "connect postgres")
		}
		st.closers = append(st.closers, closerFunc(func() error { pool.Close(); return nil }))
	}

	var store *redisstore.Store
	if cfg.Uses(config.BackendRedis) {
		store, err = redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redisstore.WithTTL(cfg.DedupeTTL))
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		st.closers = append(st.closers, store)
	}

	gate, err := buildGate(cfg, pool, store)
	if err != nil {
		return nil, err
	}
	archive, err := buildArchive(cfg, st.clock, pool, store)
	if err != nil {
		return nil, err
	}
	targets, err := buildPublishers(ctx, cfg, store, st)
	if err != nil {
		return nil, err
	}
	if opts.withHub {
		st.hub = publisher.NewHub(nil)
		st.closers = append(st.closers, st.hub)
		targets = append(targets, st.hub)
	}
	st.fanout = publisher.NewFanout(targets...)

	source, err := buildRoster(cfg, pool, l)
	if err != nil {
		return nil, err
	}

	pipeline := service.NewPipeline(
		service.WithClassifier(newClassifier(cfg)),
		service.WithGate(gate),
		service.WithAssembler(notify.New(notify.WithClock(st.clock))),
		service.WithPublisher(st.fanout),
		service.WithArchive(archive),
		service.WithPipelineLogger(l.Named("pipeline")),
	)
	st.svc = service.New(
		service.WithLogger(l),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithJobTimeout(cfg.JobTimeout),
		service.WithPipeline(pipeline),
		service.WithRosterSource(source),
		service.WithFetcher(espn.New(
			espn.WithBaseURL(cfg.FeedBaseURL),
			espn.WithTimeout(cfg.FeedTimeout),
			espn.WithRateLimit(cfg.FeedRPS),
			espn.WithLogger(l.Named("espn")),
		)),
		service.WithClock(st.clock),
	)
	return st, nil
}

func newClassifier(cfg *config.Config) *classify.Classifier {
	return classify.New(
		classify.WithPolicy(threshold.New(
			threshold.WithRushReceiveMinYards(cfg.RushReceiveMinYards),
			threshold.WithPassMinYards(cfg.PassMinYards),
		)),
		classify.WithPickSix(cfg.PickSixEnabled),
	)
}

// buildGate returns the configured dedup gate. Remote stores are bounded by
// the dedupe timeout.
func buildGate(cfg *config.Config, pool *postgres.Pool, store *redisstore.Store) (dedupe.Gate, error) {
	switch cfg.DedupeBackend {
	case config.BackendMemory:
		return dedupe.NewMemoryGate(dedupe.WithMaxSize(cfg.DedupeSize)), nil
	case config.BackendRedis:
		return dedupe.WithTimeout(store, cfg.DedupeTimeout), nil
	case config.BackendPostgres:
		return dedupe.WithTimeout(postgres.NewGate(pool), cfg.DedupeTimeout), nil
	default:
		return nil, errors.Wrapf(config.ErrInvalidConfig, "dedupe_backend %q", cfg.DedupeBackend)
	}
}

func buildArchive(cfg *config.Config, clock clockwork.Clock, pool *postgres.Pool, store *redisstore.Store) (repository.Archive, error) {
	switch cfg.ArchiveBackend {
	case config.BackendMemory:
		return repository.NewMemoryArchive(repository.WithClock(clock)), nil
	case config.BackendRedis:
		return store, nil
	case config.BackendPostgres:
		return postgres.NewArchive(pool), nil
	default:
		return nil, errors.Wrapf(config.ErrInvalidConfig, "archive_backend %q", cfg.ArchiveBackend)
	}
}

func buildPublishers(ctx context.Context, cfg *config.Config, store *redisstore.Store, st *stack) ([]publisher.Publisher, error) {
	var targets []publisher.Publisher
	for _, name := range cfg.Publishers {
		switch name {
		case config.PublisherLog:
			targets = append(targets, publisher.NewLog(logger.Get().Named("notifications")))
		case config.PublisherNATS:
			jsCfg := publisher.DefaultJetStreamConfig()
			jsCfg.URL = cfg.NATSURL
			jsCfg.StreamName = cfg.NATSStream
			jsCfg.SubjectPrefix = cfg.NATSSubject
			js, err := publisher.DialJetStream(ctx, jsCfg)
			if err != nil {
				return nil, errors.Wrap(err, "connect nats")
			}
			st.closers = append(st.closers, js)
			targets = append(targets, js)
		case config.PublisherRedis:
			targets = append(targets, publisher.NewRedisStream(store.Client(), cfg.RedisStream, streamMaxLen))
		default:
			return nil, errors.Wrapf(config.ErrInvalidConfig, "publisher %q", name)
		}
	}
	return targets, nil
}

func buildRoster(cfg *config.Config, pool *postgres.Pool, l logger.Logger) (repository.RosterSource, error) {
	switch cfg.RosterSource {
	case config.RosterFile:
		return roster.NewFile(cfg.RosterFile, roster.WithGameWindow(cfg.GameWindow), roster.WithLogger(l.Named("roster"))), nil
	case config.RosterPostgres:
		return postgres.NewRoster(pool, cfg.GameWindow), nil
	default:
		return nil, errors.Wrapf(config.ErrInvalidConfig, "roster_source %q", cfg.RosterSource)
	}
}
