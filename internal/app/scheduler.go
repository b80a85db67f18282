package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/okian/touchdown/pkg/logger"
)

// DefaultTimezone is the zone the default schedules are written in.
const DefaultTimezone = "America/New_York"

// DefaultSchedules poll every 10 seconds during the usual game windows.
// Fields: second minute hour day-of-month month day-of-week.
var DefaultSchedules = []string{
	"*/10 * 13-23 * 9-12 0", // Sunday, regular season
	"*/10 * 13-23 * 1 0",    // Sunday, playoffs
	"*/10 * 20-23 * 9-12 1", // Monday night
	"*/10 * 20-23 * 9-12 4", // Thursday night
	"*/10 * 13-23 * 12 6",   // Saturday, December
	"*/10 * 15-23 * 8 6",    // Saturday, preseason
}

// Scheduler triggers poll cycles from cron specs. A trigger that fires while
// the previous cycle is still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	run     func(ctx context.Context)
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	logger  logger.Logger
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, logger.Any(key, kv[i+1]))
	}
	return fields
}

// NewScheduler parses specs in timezone tz. Each trigger calls run with a
// context bounded by timeout.
func NewScheduler(specs []string, tz string, timeout time.Duration, run func(ctx context.Context)) (*Scheduler, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %s", tz)
	}
	if len(specs) == 0 {
		specs = DefaultSchedules
	}

	l := logger.Get().Named("scheduler")
	cl := cronLogger{l: l}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		run:     run,
		timeout: timeout,
		logger:  l,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	for _, spec := range specs {
		if _, err := s.cron.AddFunc(spec, s.trigger); err != nil {
			return nil, errors.Wrapf(err, "schedule %q", spec)
		}
	}
	return s, nil
}

func (s *Scheduler) trigger() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.run(ctx)
}

// Start begins firing triggers. With runNow the first cycle runs immediately.
func (s *Scheduler) Start(runNow bool) {
	s.cron.Start()
	if runNow {
		go s.trigger()
	}
	if entries := s.cron.Entries(); len(entries) > 0 {
		s.logger.Info(s.ctx, "scheduler started",
			logger.Int("schedules", len(entries)),
			logger.String("next", s.Next().Format(time.RFC3339)),
		)
	}
}

// Next returns the earliest upcoming trigger time.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// Stop cancels running triggers and waits for them to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "scheduler stop")
	}
}

// NextAfter reports when spec next fires after t in timezone tz.
func NextAfter(spec, tz string, t time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "load timezone %s", tz)
	}
	sched, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(spec)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse %q", spec)
	}
	return sched.Next(t.In(loc)), nil
}
