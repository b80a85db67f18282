package feed

import "github.com/cockroachdb/errors"

// Sentinel errors for feed normalization.
var (
	// ErrMalformedDocument means the payload is not a JSON object.
	ErrMalformedDocument = errors.New("malformed feed document")
	// ErrIncompletePlayData means a scoring drive has no play carrying
	// scoring-type data. Only that drive is dropped.
	ErrIncompletePlayData = errors.New("incomplete play data")
	// ErrMalformedPlay means a single play lacks its period or clock.
	ErrMalformedPlay = errors.New("malformed play")
)
