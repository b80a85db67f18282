package publisher

import "github.com/cockroachdb/errors"

var (
	// ErrClosed is returned when publishing through a closed publisher.
	ErrClosed = errors.New("publisher closed")
	// ErrEncode is returned when an event cannot be serialized.
	ErrEncode = errors.New("encode notification")
)
