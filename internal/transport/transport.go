package transport

import "github.com/chriku/roomplan/internal/protocol"

// Transport defines group communication between nodes.
type Transport interface {
	// Multicast sends a message to every member of the group. The sender
	// does not receive its own message.
	Multicast(msg *protocol.Message) error

	// Listen starts delivering incoming messages to handler.
	Listen(handler Handler) error

	// Close shuts down the transport.
	Close() error

	// LocalAddr returns the local address.
	LocalAddr() string
}

// Handler receives decoded incoming messages. It is called from the
// transport's receive goroutine and must not block.
type Handler func(msg *protocol.Message)

var (
	_ Transport = (*UDPTransport)(nil)
	_ Transport = (*MemTransport)(nil)
)
