// Package service wires the alert pipeline to its roster, feed source, job
// queue and worker pool, and exposes the operations used by the HTTP API and
// the CLI.
package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/touchdown/internal/adapters/mq/queue"
	"github.com/okian/touchdown/internal/adapters/mq/worker"
	"github.com/okian/touchdown/internal/adapters/repository"
	"github.com/okian/touchdown/internal/domain/dedupe"
	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/pkg/logger"
	"github.com/okian/touchdown/pkg/metrics"
)

// Fetcher returns the current feed document for a game.
type Fetcher interface {
	Fetch(ctx context.Context, gameID string) ([]byte, error)
}

// GameStatus is the outcome of one game within a cycle.
type GameStatus string

// Game statuses reported per cycle.
const (
	GameOK      GameStatus = "ok"
	GameFailed  GameStatus = "failed"
	GameSkipped GameStatus = "skipped"
)

// GameReport is one game's line in a cycle report.
type GameReport struct {
	GameID string      `json:"game_id"`
	Status GameStatus  `json:"status"`
	Error  string      `json:"error,omitempty"`
	Result *GameResult `json:"result,omitempty"`
}

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	ID             string        `json:"id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	TrackedPlayers int           `json:"tracked_players"`
	Games          []GameReport  `json:"games"`
	Notifications  int           `json:"notifications"`
}

type cycleState struct {
	mu      sync.Mutex
	reports map[string]*GameReport
}

// Service implements the API dependencies for the alert engine.
type Service struct {
	mu sync.RWMutex

	pipeline *Pipeline
	roster   repository.RosterSource
	fetcher  Fetcher
	clock    clockwork.Clock

	queue *queue.InMemoryQueue
	pool  *worker.Pool

	workerCount int
	queueSize   int
	jobTimeout  time.Duration

	cycles    sync.Map // cycle id -> *cycleState
	cycleMu   sync.Mutex
	lastCycle *CycleReport

	cycleCount    atomic.Int64
	notifications atomic.Int64
	duplicates    atomic.Int64

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of concurrent game workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the number of games waiting for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobTimeout bounds the work on one game in one cycle.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithPipeline sets the pipeline.
func WithPipeline(p *Pipeline) Option {
	return func(s *Service) {
		if p != nil {
			s.pipeline = p
		}
	}
}

// WithRosterSource sets where tracked players come from.
func WithRosterSource(r repository.RosterSource) Option {
	return func(s *Service) {
		if r != nil {
			s.roster = r
		}
	}
}

// WithFetcher sets the feed source.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithClock sets the clock used for cycle times and the roster window.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Start must be called before RunCycle.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 4,
		queueSize:   256,
		jobTimeout:  30 * time.Second,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.pipeline == nil {
		s.pipeline = NewPipeline()
	}
	return s
}

// Pipeline returns the pipeline.
func (s *Service) Pipeline() *Pipeline { return s.pipeline }

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.HandlerFunc(s.handle),
		worker.WithJobTimeout(s.jobTimeout))
	s.pool.Start(runCtx)
	s.started = true

	s.logger.Info(ctx, "touchdown service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Duration("job_timeout", s.jobTimeout),
	)
	return nil
}

// Stop drains the queue and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	err := s.pool.Shutdown(ctx)
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "touchdown service stopped")
	return err
}

// RunCycle loads the roster, enqueues one job per in-progress game and waits
// for every job to finish. A game that cannot be enqueued is skipped for this
// cycle; a failed game does not affect the others.
func (s *Service) RunCycle(ctx context.Context) (*CycleReport, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	if s.roster == nil || s.fetcher == nil {
		return nil, errors.Wrap(ErrNotStarted, "roster source and fetcher are required for cycles")
	}

	now := s.clock.Now()
	report := &CycleReport{ID: uuid.NewString(), StartedAt: now.UTC()}
	defer func() {
		report.Duration = s.clock.Since(now)
		metrics.RecordCycle()
		metrics.RecordCycleDuration(float64(report.Duration.Milliseconds()))
		s.cycleCount.Add(1)
		s.cycleMu.Lock()
		s.lastCycle = report
		s.cycleMu.Unlock()
	}()

	entries, err := s.roster.Load(ctx, now)
	if err != nil {
		return report, errors.Wrap(err, "load roster")
	}
	games := model.GroupByGame(entries)
	report.TrackedPlayers = games.PlayerCount()
	metrics.UpdateTrackedPlayers(report.TrackedPlayers)

	state := &cycleState{reports: make(map[string]*GameReport, len(games))}
	s.cycles.Store(report.ID, state)
	defer s.cycles.Delete(report.ID)

	for _, id := range games.IDs() {
		state.reports[id] = &GameReport{GameID: id}
	}

	var wg sync.WaitGroup
	for _, id := range games.IDs() {
		gr := state.reports[id]
		job := model.GameJob{CycleID: report.ID, GameID: id, Roster: games[id]}

		wg.Add(1)
		err := q.Enqueue(ctx, queue.NewJob(job, func(err error) {
			defer wg.Done()
			state.mu.Lock()
			defer state.mu.Unlock()
			if err != nil {
				gr.Status, gr.Error = GameFailed, err.Error()
				metrics.RecordGame(string(GameFailed))
				return
			}
			gr.Status = GameOK
			metrics.RecordGame(string(GameOK))
		}))
		if err != nil {
			wg.Done()
			state.mu.Lock()
			gr.Status, gr.Error = GameSkipped, err.Error()
			state.mu.Unlock()
			metrics.RecordGame(string(GameSkipped))
			s.logger.Warn(ctx, "game skipped for cycle", logger.String("game_id", id), logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return report, errors.Wrap(ctx.Err(), "cycle interrupted")
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	for _, id := range games.IDs() {
		gr := *state.reports[id]
		if gr.Result != nil {
			report.Notifications += len(gr.Result.Notifications)
		}
		report.Games = append(report.Games, gr)
	}
	s.logger.Info(ctx, "cycle complete",
		logger.String("cycle_id", report.ID),
		logger.Int("games", len(report.Games)),
		logger.Int("tracked_players", report.TrackedPlayers),
		logger.Int("notifications", report.Notifications),
	)
	return report, nil
}

// handle runs one game job on a worker.
func (s *Service) handle(ctx context.Context, job model.GameJob) error {
	doc, err := s.fetcher.Fetch(ctx, job.GameID)
	if err != nil {
		return errors.Wrapf(err, "fetch game %s", job.GameID)
	}
	res, err := s.pipeline.Process(ctx, job.GameID, doc, job.Roster)
	s.record(res)
	if v, ok := s.cycles.Load(job.CycleID); ok {
		state := v.(*cycleState)
		state.mu.Lock()
		if gr := state.reports[job.GameID]; gr != nil {
			gr.Result = res
		}
		state.mu.Unlock()
	}
	return err
}

func (s *Service) record(res *GameResult) {
	if res == nil {
		return
	}
	s.notifications.Add(int64(len(res.Notifications)))
	s.duplicates.Add(int64(res.Duplicates))
}

// Ingest runs a submitted feed document for gameID synchronously. When
// roster is empty the game's entries are taken from the roster source.
func (s *Service) Ingest(ctx context.Context, gameID string, doc []byte, roster []model.RosterEntry) (*GameResult, error) {
	if len(roster) == 0 {
		if s.roster == nil {
			return nil, errors.Wrapf(ErrNoRoster, "game %s", gameID)
		}
		entries, err := s.roster.Load(ctx, s.clock.Now())
		if err != nil {
			return nil, errors.Wrap(err, "load roster")
		}
		roster = model.GroupByGame(entries)[gameID]
		if len(roster) == 0 {
			return nil, errors.Wrapf(ErrNoRoster, "game %s", gameID)
		}
	}
	res, err := s.pipeline.Process(ctx, gameID, doc, roster)
	s.record(res)
	return res, err
}

// LastCycle returns the most recent cycle report, or nil.
func (s *Service) LastCycle() *CycleReport {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	return s.lastCycle
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"cycles":        s.cycleCount.Load(),
		"notifications": s.notifications.Load(),
		"duplicates":    s.duplicates.Load(),
	}
	if sizer, ok := s.pipeline.Gate().(dedupe.Sizer); ok {
		stats["dedupeKeys"] = sizer.Size()
	}
	if counter, ok := s.pipeline.Archive().(interface{ Count(context.Context) int }); ok {
		stats["archived"] = counter.Count(ctx)
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["activeWorkers"] = s.pool.Active()
	}
	if last := s.LastCycle(); last != nil {
		games := make([]string, 0, len(last.Games))
		for _, g := range last.Games {
			games = append(games, g.GameID)
		}
		sort.Strings(games)
		stats["lastCycle"] = map[string]interface{}{
			"id":            last.ID,
			"startedAt":     last.StartedAt,
			"games":         games,
			"notifications": last.Notifications,
		}
	}
	return stats
}
