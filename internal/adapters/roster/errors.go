package roster

import "github.com/cockroachdb/errors"

var (
	// ErrLoadRoster is returned when the roster document cannot be read.
	ErrLoadRoster = errors.New("load roster failed")
	// ErrInvalidEntry marks a roster entry that fails validation.
	ErrInvalidEntry = errors.New("invalid roster entry")
)
