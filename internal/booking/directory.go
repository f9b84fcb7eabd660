package booking

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chriku/roomplan/internal/logging"
	"github.com/chriku/roomplan/internal/protocol"
)

// RoomSpec describes a room to create in a Directory.
type RoomSpec struct {
	Name     string
	Capacity int
}

type room struct {
	name     string
	capacity int
	bookings []*Booking
}

// Directory is the booking state of one node. It is safe for concurrent use.
type Directory struct {
	mu       sync.RWMutex
	rooms    map[string]*room
	order    []string
	users    map[string]struct{}
	bookings map[string]*Booking
	rejected map[string]error
	lastSeq  int64
	logger   logging.Logger
}

// NewDirectory creates a directory of the given rooms and users. Duplicate
// names are ignored.
func NewDirectory(rooms []RoomSpec, users []string, logger logging.Logger) *Directory {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Directory{
		rooms:    make(map[string]*room),
		users:    make(map[string]struct{}),
		bookings: make(map[string]*Booking),
		rejected: make(map[string]error),
		logger:   logger.WithComponent("booking"),
	}
	for _, spec := range rooms {
		if _, ok := d.rooms[spec.Name]; ok || spec.Name == "" {
			continue
		}
		d.rooms[spec.Name] = &room{name: spec.Name, capacity: spec.Capacity}
		d.order = append(d.order, spec.Name)
	}
	for _, u := range users {
		if u != "" {
			d.users[u] = struct{}{}
		}
	}
	return d
}

// FindRoom returns a copy of the named room.
func (d *Directory) FindRoom(name string) (Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[name]
	if !ok {
		return Room{}, false
	}
	return r.snapshot(), true
}

// FindUser returns the named user.
func (d *Directory) FindUser(name string) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.users[name]; !ok {
		return User{}, false
	}
	return User{Name: name}, true
}

// ListRooms returns every room in configuration order.
func (d *Directory) ListRooms() []Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Room, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.rooms[name].snapshot())
	}
	return out
}

// ListUsers returns the user names in sorted order.
func (d *Directory) ListUsers() []User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]User, 0, len(d.users))
	for name := range d.users {
		out = append(out, User{Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Bookings returns the bookings of a room in the order they were applied.
func (d *Directory) Bookings(roomName string) ([]Booking, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[roomName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, roomName)
	}
	return r.snapshot().Bookings, nil
}

// Booking returns the booking with the given id.
func (d *Directory) Booking(id string) (Booking, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b, ok := d.bookings[id]
	if !ok {
		return Booking{}, false
	}
	return *b, true
}

// FreeRooms returns the rooms with no valid booking at t.
func (d *Directory) FreeRooms(t time.Time) []Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Room
	for _, name := range d.order {
		r := d.rooms[name]
		if !r.bookedAt(t) {
			out = append(out, r.snapshot())
		}
	}
	return out
}

// Rejection returns why the operation with the given id was not applied,
// or nil if it was applied or is unknown.
func (d *Directory) Rejection(opID string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rejected[opID]
}

// LastSeq returns the sequence number of the last applied operation.
func (d *Directory) LastSeq() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastSeq
}

// CheckBooking reports whether a booking would be accepted against the
// current state. The outcome is decided when the operation is applied.
func (d *Directory) CheckBooking(p BookPayload) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, err := d.checkBooking(p)
	return err
}

// CheckCancel reports whether a cancellation would be accepted against the
// current state.
func (d *Directory) CheckCancel(p CancelPayload) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, err := d.checkCancel(p)
	return err
}

// ApplyBooking applies a sequenced BOOK_ROOM operation. Invalid or
// conflicting bookings are logged and recorded as rejected.
func (d *Directory) ApplyBooking(op *protocol.Operation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advance(op)

	p, err := DecodeBook(op)
	if err != nil {
		d.reject(op, err)
		return
	}
	r, err := d.checkBooking(p)
	if err != nil {
		d.reject(op, err)
		return
	}

	b := &Booking{
		ID:     op.ID,
		Room:   p.Room,
		User:   p.User,
		Time:   p.Range(),
		Status: StatusBooked,
		Seq:    op.SequenceNumber,
	}
	r.bookings = append(r.bookings, b)
	d.bookings[b.ID] = b
	d.logger.Info("room booked",
		"booking", b.ID, "room", b.Room, "user", b.User, "time", b.Time.String(), "seq", b.Seq)
}

// ApplyCancel applies a sequenced CANCEL_ROOM operation.
func (d *Directory) ApplyCancel(op *protocol.Operation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advance(op)

	p, err := DecodeCancel(op)
	if err != nil {
		d.reject(op, err)
		return
	}
	b, err := d.checkCancel(p)
	if err != nil {
		d.reject(op, err)
		return
	}

	b.Status = StatusCancelled
	d.logger.Info("booking cancelled", "booking", b.ID, "room", b.Room, "seq", op.SequenceNumber)
}

func (d *Directory) checkBooking(p BookPayload) (*room, error) {
	r, ok := d.rooms[p.Room]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, p.Room)
	}
	if _, ok := d.users[p.User]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, p.User)
	}
	want := p.Range()
	if err := want.Validate(); err != nil {
		return nil, err
	}
	for _, b := range r.bookings {
		if b.Valid() && b.Time.Overlaps(want) {
			return nil, fmt.Errorf("%w: %s by %s (%s)", ErrConflict, r.name, b.User, b.ID)
		}
	}
	return r, nil
}

func (d *Directory) checkCancel(p CancelPayload) (*Booking, error) {
	b, ok := d.bookings[p.BookingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBooking, p.BookingID)
	}
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCancelled, b.ID)
	}
	return b, nil
}

func (d *Directory) advance(op *protocol.Operation) {
	if op.SequenceNumber > d.lastSeq {
		d.lastSeq = op.SequenceNumber
	}
}

func (d *Directory) reject(op *protocol.Operation, err error) {
	d.rejected[op.ID] = err
	d.logger.Warn("operation rejected", "op", op.ID, "kind", op.Kind, "seq", op.SequenceNumber, "error", err)
}

func (r *room) snapshot() Room {
	out := Room{Name: r.name, Capacity: r.capacity}
	if len(r.bookings) > 0 {
		out.Bookings = make([]Booking, len(r.bookings))
		for i, b := range r.bookings {
			out.Bookings[i] = *b
		}
	}
	return out
}

func (r *room) bookedAt(t time.Time) bool {
	for _, b := range r.bookings {
		if b.Valid() && b.Time.Contains(t) {
			return true
		}
	}
	return false
}
