package transport

import "errors"

// Transport errors.
var (
	// ErrTransportClosed is returned when the transport is closed.
	ErrTransportClosed = errors.New("transport: closed")

	// ErrNotListening is returned when sending before Listen.
	ErrNotListening = errors.New("transport: not listening")

	// ErrAlreadyListening is returned when Listen is called twice.
	ErrAlreadyListening = errors.New("transport: already listening")

	// ErrInvalidGroup is returned when the group address is not IPv4 multicast.
	ErrInvalidGroup = errors.New("transport: invalid multicast group")
)
