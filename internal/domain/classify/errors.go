package classify

import "github.com/cockroachdb/errors"

// Sentinel errors reported in Verdict.Misses. None of them abort a play.
var (
	// ErrNoKeyword means the tracked player led a touchdown summary but the
	// text names no pass, fumble recovery, run or rush.
	ErrNoKeyword = errors.New("no play keyword in touchdown text")
	// ErrKickerMatch means the tracked name appeared only in the conversion.
	ErrKickerMatch = errors.New("name matched the kicker, not the scorer")
	// ErrNoInterceptor means a pick-six text has no parsable interceptor.
	ErrNoInterceptor = errors.New("interceptor not found")
)
