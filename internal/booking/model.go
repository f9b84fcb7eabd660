package booking

// Status is the state of a booking.
type Status string

// Booking states.
const (
	StatusBooked    Status = "BOOKED"
	StatusCancelled Status = "CANCELLED"
)

// User is a person who can book rooms.
type User struct {
	Name string `json:"name"`
}

// Room is a bookable room with the bookings made for it.
type Room struct {
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
	Bookings []Booking `json:"bookings,omitempty"`
}

// IsBooked reports whether a valid booking covers r.
func (r Room) IsBooked(at DateRange) bool {
	for _, b := range r.Bookings {
		if b.Valid() && b.Time.Overlaps(at) {
			return true
		}
	}
	return false
}

// Booking reserves a room for a user. ID is the id of the operation that
// created it.
type Booking struct {
	ID     string    `json:"id"`
	Room   string    `json:"room"`
	User   string    `json:"user"`
	Time   DateRange `json:"time"`
	Status Status    `json:"status"`

	// Seq is the sequence number the booking was applied at.
	Seq int64 `json:"seq"`
}

// Valid reports whether the booking is still active.
func (b Booking) Valid() bool {
	return b.Status == StatusBooked
}
