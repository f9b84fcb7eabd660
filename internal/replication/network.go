package replication

import "github.com/chriku/roomplan/internal/protocol"

// Network is what a StateMachine needs from the reliability layer.
type Network interface {
	// BroadcastReliably sends msg to every active node until acknowledged.
	BroadcastReliably(msg *protocol.Message)

	// Send multicasts msg once.
	Send(msg *protocol.Message)

	// ActiveNodes returns the active set, self included.
	ActiveNodes() []protocol.NodeID
}

// Applier applies delivered operations to the domain model. Calls happen
// once per operation, in sequence order. Implementations must not fail:
// rejected operations are logged and still consume their slot.
type Applier interface {
	ApplyBooking(op *protocol.Operation)
	ApplyCancel(op *protocol.Operation)
}
