package replication

// Mode is the election role of a node.
type Mode int

// Modes.
const (
	Follower Mode = iota
	Candidate
	Leader
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case Follower:
		return "FOLLOWER"
	case Candidate:
		return "CANDIDATE"
	case Leader:
		return "LEADER"
	default:
		return "UNKNOWN"
	}
}

// ProposeResult reports what ProposeOperation did with an operation.
type ProposeResult string

// Propose results.
const (
	// QueuedNoLeader means no leader is known; the operation is held until
	// one is.
	QueuedNoLeader ProposeResult = "QUEUED_NO_LEADER"

	// ProposedAsLeader means this node is the leader and sequenced the
	// operation itself.
	ProposedAsLeader ProposeResult = "PROPOSED_AS_LEADER"

	// ForwardedToLeader means the operation was sent to the leader.
	ForwardedToLeader ProposeResult = "FORWARDED_TO_LEADER"
)
