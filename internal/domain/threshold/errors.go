package threshold

import "github.com/cockroachdb/errors"

// Sentinel errors for yardage extraction.
var (
	ErrNoYardage       = errors.New("no yardage in play")
	ErrNegativeYardage = errors.New("negative yardage")
)
