package booking

import (
	"fmt"
	"time"
)

// DateRange is the half-open interval [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange returns the range [start, end). End must be after start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate checks that the range is not empty.
func (r DateRange) Validate() error {
	if !r.End.After(r.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	return nil
}

// Contains reports whether t lies in the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Overlaps reports whether the two ranges share any instant.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Duration returns the length of the range.
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r DateRange) String() string {
	const layout = "2006-01-02 15:04"
	return r.Start.Format(layout) + " - " + r.End.Format(layout)
}

// SlotRange returns the one-hour slot starting at hour slot on date's day,
// in date's location.
func SlotRange(date time.Time, slot int) (DateRange, error) {
	if slot < 0 || slot > 23 {
		return DateRange{}, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, slot, 0, 0, 0, date.Location())
	return DateRange{Start: start, End: start.Add(time.Hour)}, nil
}
