// Package sched provides the single-goroutine event loop every node runs on,
// and the cancelable timers protocol code schedules through a Clock.
//
// Protocol state is never locked. Instead, all mutation happens in
// callbacks executed one at a time by a Loop: message handlers posted by the
// transport and timer callbacks created with Loop.AfterFunc. A timer stopped
// on the loop never runs its callback, even if the underlying runtime timer
// already fired and the callback is queued.
//
// Tests drive the same code with Virtual, a manual clock whose Advance runs
// due callbacks synchronously on the calling goroutine.
package sched
