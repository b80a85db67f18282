package espn

import "github.com/cockroachdb/errors"

var (
	// ErrFetch is returned when the feed page cannot be retrieved.
	ErrFetch = errors.New("fetch feed failed")
	// ErrStatus is returned for a non-200 response.
	ErrStatus = errors.New("unexpected feed status")
	// ErrNoDocument is returned when the page carries no embedded feed.
	ErrNoDocument = errors.New("feed document not found")
)
