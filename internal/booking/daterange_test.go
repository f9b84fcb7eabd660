package booking

import (
	"errors"
	"testing"
	"time"
)

var day = time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestNewDateRange(t *testing.T) {
	if _, err := NewDateRange(at(10, 0), at(11, 0)); err != nil {
		t.Fatalf("NewDateRange failed: %v", err)
	}
	if _, err := NewDateRange(at(10, 0), at(10, 0)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("empty range: got %v, want ErrInvalidRange", err)
	}
	if _, err := NewDateRange(at(11, 0), at(10, 0)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("reversed range: got %v, want ErrInvalidRange", err)
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{Start: at(10, 0), End: at(11, 0)}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"start is inside", at(10, 0), true},
		{"middle", at(10, 30), true},
		{"end is outside", at(11, 0), false},
		{"before", at(9, 59), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestDateRangeOverlaps(t *testing.T) {
	r := DateRange{Start: at(10, 0), End: at(11, 0)}

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"same", r, true},
		{"inside", DateRange{at(10, 15), at(10, 45)}, true},
		{"covering", DateRange{at(9, 0), at(12, 0)}, true},
		{"tail", DateRange{at(10, 59), at(11, 30)}, true},
		{"adjacent after", DateRange{at(11, 0), at(12, 0)}, false},
		{"adjacent before", DateRange{at(9, 0), at(10, 0)}, false},
		{"disjoint", DateRange{at(13, 0), at(14, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(r); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlotRange(t *testing.T) {
	r, err := SlotRange(day.Add(15*time.Hour+20*time.Minute), 9)
	if err != nil {
		t.Fatalf("SlotRange failed: %v", err)
	}
	if !r.Start.Equal(at(9, 0)) || !r.End.Equal(at(10, 0)) {
		t.Errorf("SlotRange = %s, want 09:00 - 10:00", r)
	}
	if r.Duration() != time.Hour {
		t.Errorf("Duration() = %v, want 1h", r.Duration())
	}

	for _, slot := range []int{-1, 24} {
		if _, err := SlotRange(day, slot); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("SlotRange(%d): got %v, want ErrInvalidSlot", slot, err)
		}
	}
}
