package protocol

import "github.com/google/uuid"

// NodeID identifies a node. IDs are compared as strings; a larger ID has a
// higher election priority.
type NodeID string

// Node describes a cluster member.
type Node struct {
	ID       NodeID `json:"id"`
	Nickname string `json:"nickname"`
}

// Outranks reports whether id has a higher election priority than other.
func (id NodeID) Outranks(other NodeID) bool {
	return id > other
}

// LogEntry is a sequenced operation transferred during leadership handoff.
type LogEntry struct {
	Seq int64      `json:"seq"`
	Op  *Operation `json:"op"`
}

// Message is the envelope of every protocol message. MarshalJSON decides
// which fields go on the wire.
type Message struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	From  NodeID `json:"from"`
	Epoch *int64 `json:"epoch"`

	// Addressing. An empty To means the message is for every node.
	To NodeID `json:"to,omitempty"`

	// ACK
	AckFor string `json:"ackFor,omitempty"`

	// VOTE_RESPONSE
	LastDeliveredSeq  int64  `json:"lastDeliveredSeq,omitempty"`
	LastDeliveredOpID string `json:"lastDeliveredOpId,omitempty"`

	// LEADER_ANNOUNCE, ASSIGN_OP, RESEND_REQUEST, CATCH_UP_RESPONSE
	LeaderID        NodeID `json:"leaderId,omitempty"`
	StartSeq        int64  `json:"startSeq,omitempty"`
	LastSeq         int64  `json:"lastSeq,omitempty"`
	NextSeqToAssign int64  `json:"nextSeqToAssign,omitempty"`

	// PROPOSE_OP, ASSIGN_OP
	Seq int64      `json:"seq,omitempty"`
	Op  *Operation `json:"op,omitempty"`

	// RESEND_REQUEST, LOG_REQUEST
	FromSeq int64 `json:"fromSeq,omitempty"`
	ToSeq   int64 `json:"toSeq,omitempty"`

	// LOG_RESPONSE
	Entries []LogEntry `json:"entries,omitempty"`
}

// NewMessage creates a message with a fresh id. Pass a nil epoch for
// liveness-only kinds.
func NewMessage(kind Kind, from NodeID, epoch *int64) *Message {
	return &Message{
		ID:    uuid.NewString(),
		Kind:  kind,
		From:  from,
		Epoch: epoch,
	}
}

// Epoch returns a pointer to e for use in message envelopes.
func Epoch(e int64) *int64 {
	return &e
}

// HasEpoch reports whether the message carries an epoch.
func (m *Message) HasEpoch() bool {
	return m.Epoch != nil
}

// EpochValue returns the epoch or -1 when absent.
func (m *Message) EpochValue() int64 {
	if m.Epoch == nil {
		return -1
	}
	return *m.Epoch
}

// Addressed reports whether the message targets a single node.
func (m *Message) Addressed() bool {
	return m.To != ""
}

// NewAck creates an acknowledgement for the message with the given id.
func NewAck(from NodeID, ackFor string) *Message {
	m := NewMessage(KindAck, from, nil)
	m.AckFor = ackFor
	return m
}

// NewPing creates a heartbeat.
func NewPing(from NodeID) *Message {
	return NewMessage(KindPing, from, nil)
}
