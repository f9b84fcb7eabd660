package protocol

import (
	"encoding/json"
	"fmt"
)

// MaxMessageSize bounds a single encoded message. It matches the largest
// UDP payload over IPv4.
const MaxMessageSize = 65507

// Encode serializes a message for the wire.
func Encode(m *Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("protocol: message %s is %d bytes, limit %d", m.ID, len(data), MaxMessageSize)
	}
	return data, nil
}

// Decode parses a wire payload. Malformed payloads and envelopes missing
// required fields return an error wrapping ErrMalformed.
func Decode(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &m, nil
}

// MarshalJSON writes the envelope and every field the message's kind
// carries, zero values included. An unset To or LastDeliveredOpID is written
// as null. Fields outside the kind's set are written only when set.
func (m Message) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":    m.ID,
		"kind":  m.Kind,
		"from":  m.From,
		"epoch": m.Epoch,
	}

	to := nullable(string(m.To))
	switch m.Kind {
	case KindAck:
		out["ackFor"] = m.AckFor
	case KindOK:
		out["to"] = to
	case KindVoteResponse:
		out["to"] = to
		out["lastDeliveredSeq"] = m.LastDeliveredSeq
		out["lastDeliveredOpId"] = nullable(m.LastDeliveredOpID)
	case KindLeaderAnnounce:
		out["leaderId"] = m.LeaderID
		out["startSeq"] = m.StartSeq
		out["lastSeq"] = m.LastSeq
	case KindProposeOp:
		out["op"] = m.Op
	case KindAssignOp:
		out["leaderId"] = m.LeaderID
		out["seq"] = m.Seq
		out["op"] = m.Op
	case KindResendRequest:
		out["leaderId"] = m.LeaderID
		out["fromSeq"] = m.FromSeq
		out["toSeq"] = m.ToSeq
	case KindCatchUpResponse:
		out["to"] = to
		out["leaderId"] = m.LeaderID
		out["lastSeq"] = m.LastSeq
		out["nextSeqToAssign"] = m.NextSeqToAssign
	case KindLogRequest:
		out["to"] = to
		out["fromSeq"] = m.FromSeq
		out["toSeq"] = m.ToSeq
	case KindLogResponse:
		entries := m.Entries
		if entries == nil {
			entries = []LogEntry{}
		}
		out["to"] = to
		out["entries"] = entries
	}

	optional := []struct {
		key string
		val any
		set bool
	}{
		{"to", m.To, m.To != ""},
		{"ackFor", m.AckFor, m.AckFor != ""},
		{"lastDeliveredSeq", m.LastDeliveredSeq, m.LastDeliveredSeq != 0},
		{"lastDeliveredOpId", m.LastDeliveredOpID, m.LastDeliveredOpID != ""},
		{"leaderId", m.LeaderID, m.LeaderID != ""},
		{"startSeq", m.StartSeq, m.StartSeq != 0},
		{"lastSeq", m.LastSeq, m.LastSeq != 0},
		{"nextSeqToAssign", m.NextSeqToAssign, m.NextSeqToAssign != 0},
		{"seq", m.Seq, m.Seq != 0},
		{"op", m.Op, m.Op != nil},
		{"fromSeq", m.FromSeq, m.FromSeq != 0},
		{"toSeq", m.ToSeq, m.ToSeq != 0},
		{"entries", m.Entries, len(m.Entries) > 0},
	}
	for _, f := range optional {
		if _, ok := out[f.key]; !ok && f.set {
			out[f.key] = f.val
		}
	}
	return json.Marshal(out)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Validate checks the envelope and the fields each kind cannot do without.
func (m *Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	if m.From == "" {
		return fmt.Errorf("%w: from", ErrMissingField)
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}

	switch m.Kind {
	case KindAck:
		if m.AckFor == "" {
			return fmt.Errorf("%w: ackFor", ErrMissingField)
		}
	case KindProposeOp, KindAssignOp:
		if m.Op == nil || m.Op.ID == "" {
			return fmt.Errorf("%w: op", ErrMissingField)
		}
	case KindLeaderAnnounce, KindResendRequest:
		if m.LeaderID == "" {
			return fmt.Errorf("%w: leaderId", ErrMissingField)
		}
	}
	if !m.Kind.Liveness() && m.Epoch == nil {
		return fmt.Errorf("%w: epoch", ErrMissingField)
	}
	return nil
}
