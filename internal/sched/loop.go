package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop runs callbacks one at a time on a dedicated goroutine.
type Loop struct {
	events chan func()
	stopCh chan struct{}
	doneCh chan struct{}

	running  int32
	stopOnce sync.Once
}

// NewLoop creates a loop whose queue holds up to buffer pending callbacks.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Loop{
		events: make(chan func(), buffer),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start() {
	if !atomic.CompareAndSwapInt32(&l.running, 0, 1) {
		return // Already running
	}
	go l.run()
}

// Stop stops the loop and waits for the running callback to return. Queued
// callbacks are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
	if atomic.LoadInt32(&l.running) == 1 {
		<-l.doneCh
	}
}

func (l *Loop) run() {
	defer close(l.doneCh)
	for {
		select {
		case <-l.stopCh:
			return
		case f := <-l.events:
			f()
		}
	}
}

// Post queues f for execution on the loop.
func (l *Loop) Post(f func()) error {
	select {
	case <-l.stopCh:
		return ErrLoopStopped
	default:
	}

	select {
	case l.events <- f:
		return nil
	case <-l.stopCh:
		return ErrLoopStopped
	}
}

// Do runs f on the loop and waits until it has returned. When Do returns an
// error, f has not run and never will.
func (l *Loop) Do(ctx context.Context, f func()) error {
	const (
		waiting int32 = iota
		claimed
		abandoned
	)
	var state int32
	done := make(chan struct{})

	if err := l.Post(func() {
		if !atomic.CompareAndSwapInt32(&state, waiting, claimed) {
			return
		}
		f()
		close(done)
	}); err != nil {
		return err
	}

	var err error
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		err = ctx.Err()
	case <-l.stopCh:
		err = ErrLoopStopped
	}
	if atomic.CompareAndSwapInt32(&state, waiting, abandoned) {
		return err
	}
	// f already started; Stop waits for it as well.
	<-done
	return nil
}

// Now returns the wall clock with its monotonic reading.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		_ = l.Post(func() {
			if t.stopped {
				return
			}
			t.fired = true
			f()
		})
	})
	return t
}

// loopTimer flags are only touched on the loop goroutine.
type loopTimer struct {
	timer   *time.Timer
	stopped bool
	fired   bool
}

// Stop must be called on the loop goroutine.
func (t *loopTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}
