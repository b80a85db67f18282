package repository

import "github.com/jonboulle/clockwork"

// Option applies a configuration option to the MemoryArchive.
type Option func(*MemoryArchive)

// WithClock sets the clock stamping ArchivedAt.
func WithClock(c clockwork.Clock) Option {
	return func(a *MemoryArchive) {
		if c != nil {
			a.clock = c
		}
	}
}
