package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OperationKind identifies what an operation does to the booking model.
type OperationKind string

// Operation kinds.
const (
	OpBookRoom   OperationKind = "BOOK_ROOM"
	OpCancelRoom OperationKind = "CANCEL_ROOM"
)

// Unassigned is the sequence number of an operation the leader has not yet
// ordered.
const Unassigned int64 = -1

// Operation is a client request replicated through the sequencer.
type Operation struct {
	ID             string          `json:"id"`
	Kind           OperationKind   `json:"kind"`
	SequenceNumber int64           `json:"sequenceNumber"`
	Timestamp      time.Time       `json:"timestamp"`
	CausedBy       NodeID          `json:"causedBy,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// NewOperation creates an unassigned operation with a fresh id. The payload
// is marshalled to JSON.
func NewOperation(kind OperationKind, payload interface{}) (*Operation, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return &Operation{
		ID:             uuid.NewString(),
		Kind:           kind,
		SequenceNumber: Unassigned,
		Timestamp:      time.Now().UTC(),
		Payload:        raw,
	}, nil
}

// Clone returns a copy that can be stamped without touching the original.
func (o *Operation) Clone() *Operation {
	if o == nil {
		return nil
	}
	c := *o
	if o.Payload != nil {
		c.Payload = append(json.RawMessage(nil), o.Payload...)
	}
	return &c
}

// WithSequence returns a copy of the operation carrying seq.
func (o *Operation) WithSequence(seq int64) *Operation {
	c := o.Clone()
	c.SequenceNumber = seq
	return c
}

// DecodePayload unmarshals the payload into v.
func (o *Operation) DecodePayload(v interface{}) error {
	if len(o.Payload) == 0 {
		return ErrMissingField
	}
	return json.Unmarshal(o.Payload, v)
}
