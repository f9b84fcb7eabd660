package reliability

import "github.com/chriku/roomplan/internal/protocol"

// Receiver is the protocol layer above a Layer.
type Receiver interface {
	// OnDeliver is called once per finalized message from another node,
	// and for every unreliable message not seen within the dedup window.
	OnDeliver(msg *protocol.Message)

	// OnViewChange is called when the active set changes.
	OnViewChange(change ViewChange)
}

// ViewChange describes a change of the active set.
type ViewChange struct {
	// Active is the active set after the change, sorted, self included.
	Active []protocol.NodeID

	// Joined lists nodes promoted to active.
	Joined []protocol.NodeID

	// Left lists nodes demoted from active.
	Left []protocol.NodeID
}

// Sender is the part of a transport a Layer sends through.
type Sender interface {
	Multicast(msg *protocol.Message) error
}
