package repository

import "github.com/cockroachdb/errors"

// Sentinel errors shared by the storage backends.
var (
	ErrNotFound    = errors.New("archive entry not found")
	ErrInvalidArgs = errors.New("game id and label are required")
)
