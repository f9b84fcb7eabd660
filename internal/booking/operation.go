package booking

import (
	"fmt"
	"time"

	"github.com/chriku/roomplan/internal/protocol"
)

// BookPayload is the payload of a BOOK_ROOM operation.
type BookPayload struct {
	Room  string    `json:"room"`
	User  string    `json:"user"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Range returns the booked range.
func (p BookPayload) Range() DateRange {
	return DateRange{Start: p.Start, End: p.End}
}

// CancelPayload is the payload of a CANCEL_ROOM operation.
type CancelPayload struct {
	BookingID string `json:"bookingId"`
}

// NewBookOperation builds an unassigned operation booking room for user.
func NewBookOperation(room, user string, r DateRange) (*protocol.Operation, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return protocol.NewOperation(protocol.OpBookRoom, BookPayload{
		Room:  room,
		User:  user,
		Start: r.Start,
		End:   r.End,
	})
}

// NewCancelOperation builds an unassigned operation cancelling a booking.
func NewCancelOperation(bookingID string) (*protocol.Operation, error) {
	if bookingID == "" {
		return nil, ErrUnknownBooking
	}
	return protocol.NewOperation(protocol.OpCancelRoom, CancelPayload{BookingID: bookingID})
}

// DecodeBook returns the payload of a BOOK_ROOM operation.
func DecodeBook(op *protocol.Operation) (BookPayload, error) {
	var p BookPayload
	if op.Kind != protocol.OpBookRoom {
		return p, fmt.Errorf("%w: %s", ErrWrongOperation, op.Kind)
	}
	if err := op.DecodePayload(&p); err != nil {
		return p, fmt.Errorf("decode booking payload: %w", err)
	}
	return p, nil
}

// DecodeCancel returns the payload of a CANCEL_ROOM operation.
func DecodeCancel(op *protocol.Operation) (CancelPayload, error) {
	var p CancelPayload
	if op.Kind != protocol.OpCancelRoom {
		return p, fmt.Errorf("%w: %s", ErrWrongOperation, op.Kind)
	}
	if err := op.DecodePayload(&p); err != nil {
		return p, fmt.Errorf("decode cancel payload: %w", err)
	}
	return p, nil
}
