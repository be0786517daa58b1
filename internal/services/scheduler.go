package services

import "time"

// Scheduler abstracts delayed execution so the reconcile timing can be
// driven manually in tests.
type Scheduler interface {
	// AfterFunc runs f after d. The returned function cancels the pending
	// call; cancelling after f has started is a no-op.
	AfterFunc(d time.Duration, f func()) (cancel func())
}

type wallClockScheduler struct{}

// NewWallClockScheduler returns the production scheduler backed by the
// runtime timer.
func NewWallClockScheduler() Scheduler {
	return wallClockScheduler{}
}

func (wallClockScheduler) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}
