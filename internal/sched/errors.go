package sched

import "errors"

// Scheduler errors.
var (
	// ErrLoopStopped is returned when posting to a loop that has stopped.
	ErrLoopStopped = errors.New("sched: loop stopped")
)
