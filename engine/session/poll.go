package session

import "github.com/pkg/errors"

// PollUntil runs tick until cond is satisfied, bounded by maxTicks. The
// replication core never blocks on network conditions; waiting is always a
// bounded polling loop that reports failure instead of hanging.
func PollUntil(cond func() bool, maxTicks int, tick func()) error {
	for i := 0; i < maxTicks; i++ {
		if cond() {
			return nil
		}
		tick()
	}
	if cond() {
		return nil
	}
	return errors.Errorf("condition not reached within %d ticks", maxTicks)
}
