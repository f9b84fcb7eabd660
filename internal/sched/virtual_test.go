package sched

import (
	"testing"
	"time"
)

var epoch0 = time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

func TestVirtualRunsInDeadlineOrder(t *testing.T) {
	v := NewVirtual(epoch0)
	var order []string

	v.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	v.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	v.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	v.Advance(2 * time.Second)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("after 2s order = %v, want [a b]", order)
	}

	v.Advance(time.Second)
	if len(order) != 3 || order[2] != "c" {
		t.Fatalf("after 3s order = %v, want [a b c]", order)
	}
	if got := v.Now().Sub(epoch0); got != 3*time.Second {
		t.Errorf("Now advanced by %v, want 3s", got)
	}
}

func TestVirtualStop(t *testing.T) {
	v := NewVirtual(epoch0)
	ran := false
	timer := v.AfterFunc(time.Second, func() { ran = true })

	if !timer.Stop() {
		t.Error("first Stop returned false")
	}
	if timer.Stop() {
		t.Error("second Stop returned true")
	}

	v.Advance(2 * time.Second)
	if ran {
		t.Error("stopped timer ran")
	}
	if v.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", v.Pending())
	}
}

func TestVirtualChainedTimers(t *testing.T) {
	v := NewVirtual(epoch0)
	count := 0

	var tick func()
	tick = func() {
		count++
		v.AfterFunc(time.Second, tick)
	}
	v.AfterFunc(time.Second, tick)

	v.Advance(5 * time.Second)
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestVirtualNowInsideCallback(t *testing.T) {
	v := NewVirtual(epoch0)
	var seen time.Time
	v.AfterFunc(1500*time.Millisecond, func() { seen = v.Now() })

	v.Advance(10 * time.Second)
	if got := seen.Sub(epoch0); got != 1500*time.Millisecond {
		t.Errorf("callback saw %v, want 1.5s", got)
	}
}

func TestStopTimerNil(t *testing.T) {
	StopTimer(nil) // must not panic
}
