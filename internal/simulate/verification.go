package simulate

import "github.com/cockroachdb/errors"

// ErrVerification marks a simulation whose results break the dedup contract.
var ErrVerification = errors.New("simulation verification failed")

// verifyResults checks that every game went through, that the first pass
// emitted the expected notifications and that the replay emitted none.
func verifyResults(stats *Stats) error {
	var errs error
	if stats.First.Failed > 0 || stats.Replay.Failed > 0 {
		errs = errors.CombineErrors(errs, errors.Newf("%d submissions failed", stats.First.Failed+stats.Replay.Failed))
	}
	if stats.First.Notifications != stats.Expected {
		errs = errors.CombineErrors(errs, errors.Newf("first pass emitted %d notifications, expected %d",
			stats.First.Notifications, stats.Expected))
	}
	if stats.Replay.Notifications != 0 {
		errs = errors.CombineErrors(errs, errors.Newf("replay emitted %d notifications", stats.Replay.Notifications))
	}
	if errs != nil {
		return errors.Mark(errs, ErrVerification)
	}
	return nil
}
