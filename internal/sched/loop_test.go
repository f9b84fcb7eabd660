package sched

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopRunsPostedCallbacksInOrder(t *testing.T) {
	l := NewLoop(16)
	l.Start()
	defer l.Stop()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		if err := l.Post(func() { got = append(got, i) }); err != nil {
			t.Fatalf("Post failed: %v", err)
		}
	}

	var snapshot []int
	if err := l.Do(context.Background(), func() { snapshot = append(snapshot, got...) }); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	for i, v := range snapshot {
		if v != i {
			t.Fatalf("callbacks ran out of order: %v", snapshot)
		}
	}
	if len(snapshot) != 5 {
		t.Errorf("ran %d callbacks, want 5", len(snapshot))
	}
}

func TestLoopAfterFunc(t *testing.T) {
	l := NewLoop(16)
	l.Start()
	defer l.Stop()

	fired := make(chan struct{}, 1)
	l.AfterFunc(10*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoopStoppedTimerDoesNotRun(t *testing.T) {
	l := NewLoop(16)
	l.Start()
	defer l.Stop()

	fired := make(chan struct{}, 1)
	var timer Timer
	if err := l.Do(context.Background(), func() {
		timer = l.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
	}); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if err := l.Do(context.Background(), func() { timer.Stop() }); err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("stopped timer ran")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLoopPostAfterStop(t *testing.T) {
	l := NewLoop(1)
	l.Start()
	l.Stop()

	if err := l.Post(func() {}); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Post after Stop error = %v, want ErrLoopStopped", err)
	}
}

func TestLoopDoSkipsCallbackAfterCancel(t *testing.T) {
	l := NewLoop(16)
	l.Start()
	defer l.Stop()

	release := make(chan struct{})
	if err := l.Post(func() { <-release }); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	ran := false
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Do(ctx, func() { ran = true }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Do() = %v, want DeadlineExceeded", err)
	}

	close(release)
	var seen bool
	if err := l.Do(context.Background(), func() { seen = ran }); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if seen {
		t.Error("callback ran after Do reported an error")
	}
}
