package dedupe

import "github.com/cockroachdb/errors"

// ErrStoreUnavailable marks any failure to reach the dedup store.
var ErrStoreUnavailable = errors.New("dedup store unavailable")
