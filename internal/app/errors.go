package service

import "github.com/cockroachdb/errors"

var (
	// ErrGameAborted is returned when a game stops mid-feed because the dedup
	// store failed. Plays already published stay published.
	ErrGameAborted = errors.New("game aborted")
	// ErrNotStarted is returned by operations that need a running service.
	ErrNotStarted = errors.New("service not started")
	// ErrNoRoster is returned when a game has no tracked entries.
	ErrNoRoster = errors.New("no tracked players for game")
)
