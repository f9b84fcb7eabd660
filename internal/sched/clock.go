package sched

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the timer. It returns false if the callback already ran
	// or the timer was already stopped.
	Stop() bool
}

// Clock supplies time and timers to protocol code.
type Clock interface {
	// Now returns the current time. Implementations return monotonic
	// readings, so only differences between two Now values are meaningful.
	Now() time.Time

	// AfterFunc schedules f to run after d. The callback runs on the same
	// goroutine as every other callback of this clock.
	AfterFunc(d time.Duration, f func()) Timer
}

// StopTimer stops t if it is non-nil. It is a convenience for fields holding
// optional timers.
func StopTimer(t Timer) {
	if t != nil {
		t.Stop()
	}
}
