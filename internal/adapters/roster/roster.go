// Package roster loads the tracked-player roster for a poll cycle.
package roster

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/pkg/logger"
)

// DefaultGameWindow is how long after kickoff a game counts as in progress.
const DefaultGameWindow = 4 * time.Hour

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks one entry's required fields.
func Validate(e *model.RosterEntry) error {
	if err := validatorInstance().Struct(e); err != nil {
		return errors.Mark(errors.Wrapf(err, "player %q", e.PlayerName), ErrInvalidEntry)
	}
	return nil
}

// Filter drops invalid entries and games outside their window at now. Invalid
// entries are logged and skipped so one bad row cannot stall the cycle.
func Filter(ctx context.Context, l logger.Logger, entries []model.RosterEntry, now time.Time, window time.Duration) []model.RosterEntry {
	out := make([]model.RosterEntry, 0, len(entries))
	for i := range entries {
		e := entries[i]
		if err := Validate(&e); err != nil {
			l.Warn(ctx, "skipping roster entry", logger.Int("index", i), logger.Error(err))
			continue
		}
		if window > 0 && !e.InProgress(now, window) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// File is a roster kept in a YAML document:
//
//	entries:
//	  - player_name: Deebo Samuel
//	    team_abbreviation: SF
//	    position: WR
//	    owner_id: 7
//	    season: 2023
//	    game_id: "401547417"
//	    game_date: 2023-09-10T13:00:00-04:00
//
// The file is re-read on every Load so edits apply to the next cycle.
type File struct {
	path   string
	window time.Duration
	logger logger.Logger
}

// Option configures a File.
type Option func(*File)

// WithGameWindow sets the in-progress window. Zero disables the filter.
func WithGameWindow(d time.Duration) Option {
	return func(f *File) {
		if d >= 0 {
			f.window = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *File) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFile returns a file-backed roster source.
func NewFile(path string, opts ...Option) *File {
	f := &File{path: path, window: DefaultGameWindow, logger: logger.Get().Named("roster")}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load implements repository.RosterSource.
func (f *File) Load(ctx context.Context, now time.Time) ([]model.RosterEntry, error) {
	entries, err := ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	return Filter(ctx, f.logger, entries, now, f.window), nil
}

// ReadFile parses every entry in a roster document without filtering.
func ReadFile(path string) ([]model.RosterEntry, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read %s", path), ErrLoadRoster)
	}
	var entries []model.RosterEntry
	if err := k.UnmarshalWithConf("entries", &entries, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decode %s", path), ErrLoadRoster)
	}
	return entries, nil
}

// Static is a fixed roster, used for replays and request-supplied rosters.
type Static struct {
	entries []model.RosterEntry
	window  time.Duration
	logger  logger.Logger
}

// NewStatic returns a source that always yields entries. window 0 disables
// the in-progress filter.
func NewStatic(entries []model.RosterEntry, window time.Duration) *Static {
	return &Static{entries: entries, window: window, logger: logger.Get().Named("roster")}
}

// Load implements repository.RosterSource.
func (s *Static) Load(ctx context.Context, now time.Time) ([]model.RosterEntry, error) {
	return Filter(ctx, s.logger, s.entries, now, s.window), nil
}
