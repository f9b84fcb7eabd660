package booking

import "errors"

// Booking errors.
var (
	// ErrUnknownRoom is returned when a room name is not in the directory.
	ErrUnknownRoom = errors.New("booking: unknown room")

	// ErrUnknownUser is returned when a user name is not in the directory.
	ErrUnknownUser = errors.New("booking: unknown user")

	// ErrUnknownBooking is returned when a booking id does not exist.
	ErrUnknownBooking = errors.New("booking: unknown booking")

	// ErrInvalidRange is returned when a range does not end after it starts.
	ErrInvalidRange = errors.New("booking: invalid date range")

	// ErrInvalidSlot is returned for an hour slot outside 0..23.
	ErrInvalidSlot = errors.New("booking: invalid slot")

	// ErrConflict is returned when a room is already booked for an
	// overlapping range.
	ErrConflict = errors.New("booking: room already booked")

	// ErrAlreadyCancelled is returned when cancelling a cancelled booking.
	ErrAlreadyCancelled = errors.New("booking: already cancelled")

	// ErrWrongOperation is returned when an operation has an unexpected kind.
	ErrWrongOperation = errors.New("booking: wrong operation kind")
)
