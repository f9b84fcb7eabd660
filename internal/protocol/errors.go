package protocol

import "errors"

// Protocol errors.
var (
	// ErrMalformed is returned when a payload cannot be decoded into a message.
	ErrMalformed = errors.New("protocol: malformed message")

	// ErrMissingField is returned when a required envelope field is empty.
	ErrMissingField = errors.New("protocol: missing required field")

	// ErrUnknownKind is returned for a kind outside the protocol.
	ErrUnknownKind = errors.New("protocol: unknown message kind")

	// ErrNotDispatchable is returned when Dispatch is given a kind that is
	// consumed by the reliability layer (ACK, PING).
	ErrNotDispatchable = errors.New("protocol: kind is not dispatched to handlers")
)
