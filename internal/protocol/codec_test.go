package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeAssign(t *testing.T) {
	op, err := NewOperation(OpBookRoom, map[string]string{"room": "A"})
	if err != nil {
		t.Fatalf("NewOperation failed: %v", err)
	}
	m := NewMessage(KindAssignOp, "node-b", Epoch(4))
	m.LeaderID = "node-b"
	m.Seq = 12
	m.Op = op.WithSequence(12)

	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.ID != m.ID || got.Kind != KindAssignOp || got.From != "node-b" {
		t.Errorf("envelope mismatch: got %+v", got)
	}
	if got.EpochValue() != 4 {
		t.Errorf("epoch = %d, want 4", got.EpochValue())
	}
	if got.Op.ID != op.ID || got.Op.SequenceNumber != 12 {
		t.Errorf("op mismatch: got %+v", got.Op)
	}
}

func TestEncodePingHasNullEpoch(t *testing.T) {
	data, err := Encode(NewPing("node-a"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(data), `"epoch":null`) {
		t.Errorf("expected null epoch in %s", data)
	}
}

func TestEncodeWritesKindFields(t *testing.T) {
	standDown := NewMessage(KindOK, "b", Epoch(3))

	vote := NewMessage(KindVoteResponse, "a", Epoch(1))
	vote.To = "c"

	announce := NewMessage(KindLeaderAnnounce, "c", Epoch(1))
	announce.LeaderID = "c"
	announce.StartSeq = 1

	catchUp := NewMessage(KindCatchUpResponse, "c", Epoch(1))
	catchUp.To = "a"
	catchUp.LeaderID = "c"
	catchUp.NextSeqToAssign = 1

	logResp := NewMessage(KindLogResponse, "a", Epoch(2))
	logResp.To = "c"

	tests := []struct {
		name   string
		msg    *Message
		want   []string
		absent []string
	}{
		{"unaddressed ok", standDown, []string{`"to":null`}, nil},
		{"vote from empty log", vote, []string{`"to":"c"`, `"lastDeliveredSeq":0`, `"lastDeliveredOpId":null`}, nil},
		{"announce of empty log", announce, []string{`"leaderId":"c"`, `"startSeq":1`, `"lastSeq":0`}, []string{`"to"`}},
		{"catch-up response", catchUp, []string{`"to":"a"`, `"lastSeq":0`, `"nextSeqToAssign":1`}, nil},
		{"empty log response", logResp, []string{`"entries":[]`}, nil},
		{"ping", NewPing("a"), []string{`"epoch":null`}, []string{`"to"`, `"lastSeq"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(data), w) {
					t.Errorf("%s missing %s", data, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(string(data), a) {
					t.Errorf("%s should not contain %s", data, a)
				}
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got.To != tt.msg.To || got.LastSeq != tt.msg.LastSeq || got.LeaderID != tt.msg.LeaderID {
				t.Errorf("decoded %+v, want %+v", got, tt.msg)
			}
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `hello`},
		{"missing id", `{"kind":"PING","from":"a","epoch":null}`},
		{"missing from", `{"id":"1","kind":"PING","epoch":null}`},
		{"unknown kind", `{"id":"1","kind":"FISCH","from":"a","epoch":1}`},
		{"ack without ackFor", `{"id":"1","kind":"ACK","from":"a","epoch":null}`},
		{"election without epoch", `{"id":"1","kind":"ELECTION","from":"a","epoch":null}`},
		{"assign without op", `{"id":"1","kind":"ASSIGN_OP","from":"a","epoch":1,"leaderId":"a","seq":1}`},
		{"announce without leader", `{"id":"1","kind":"LEADER_ANNOUNCE","from":"a","epoch":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode(%s) error = %v, want ErrMalformed", tt.data, err)
			}
		})
	}
}

func TestDecodeLogResponse(t *testing.T) {
	data := `{"id":"m1","kind":"LOG_RESPONSE","from":"a","epoch":2,"to":"b",
		"entries":[{"seq":8,"op":{"id":"o8","kind":"BOOK_ROOM","sequenceNumber":8,"timestamp":"2026-03-11T10:00:00Z"}}]}`
	m, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if m.To != "b" {
		t.Errorf("to = %q, want b", m.To)
	}
	if len(m.Entries) != 1 || m.Entries[0].Seq != 8 || m.Entries[0].Op.ID != "o8" {
		t.Errorf("entries mismatch: %+v", m.Entries)
	}
}

func TestKindClassification(t *testing.T) {
	tests := []struct {
		kind     Kind
		reliable bool
		election bool
	}{
		{KindAck, false, false},
		{KindPing, false, false},
		{KindAssignOp, false, false},
		{KindElection, true, true},
		{KindOK, true, false},
		{KindVoteRequest, true, true},
		{KindVoteResponse, true, true},
		{KindLeaderAnnounce, true, true},
		{KindProposeOp, true, false},
		{KindLogResponse, true, false},
		{KindCatchUp, true, false},
		{Kind("FISCH"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Reliable(); got != tt.reliable {
				t.Errorf("Reliable() = %v, want %v", got, tt.reliable)
			}
			if got := tt.kind.Election(); got != tt.election {
				t.Errorf("Election() = %v, want %v", got, tt.election)
			}
			if got := tt.kind.Query(); got != (tt.kind == KindCatchUp) {
				t.Errorf("Query() = %v", got)
			}
		})
	}
}

func TestOperationClone(t *testing.T) {
	op, _ := NewOperation(OpCancelRoom, map[string]string{"bookingId": "x"})
	if op.SequenceNumber != Unassigned {
		t.Fatalf("new operation sequence = %d, want %d", op.SequenceNumber, Unassigned)
	}

	seq := op.WithSequence(3)
	if op.SequenceNumber != Unassigned {
		t.Error("WithSequence modified the original")
	}
	seq.Payload[0] = 'X'
	if op.Payload[0] == 'X' {
		t.Error("Clone shares the payload buffer")
	}

	var payload map[string]string
	if err := op.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if payload["bookingId"] != "x" {
		t.Errorf("bookingId = %q, want x", payload["bookingId"])
	}
}
