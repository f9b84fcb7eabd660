package protocol

import (
	"errors"
	"testing"
)

type recordingHandler struct {
	calls []Kind
}

func (r *recordingHandler) HandleElection(m *Message)        { r.calls = append(r.calls, KindElection) }
func (r *recordingHandler) HandleOK(m *Message)              { r.calls = append(r.calls, KindOK) }
func (r *recordingHandler) HandleVoteRequest(m *Message)     { r.calls = append(r.calls, KindVoteRequest) }
func (r *recordingHandler) HandleVoteResponse(m *Message)    { r.calls = append(r.calls, KindVoteResponse) }
func (r *recordingHandler) HandleLeaderAnnounce(m *Message)  { r.calls = append(r.calls, KindLeaderAnnounce) }
func (r *recordingHandler) HandleProposeOp(m *Message)       { r.calls = append(r.calls, KindProposeOp) }
func (r *recordingHandler) HandleAssignOp(m *Message)        { r.calls = append(r.calls, KindAssignOp) }
func (r *recordingHandler) HandleResendRequest(m *Message)   { r.calls = append(r.calls, KindResendRequest) }
func (r *recordingHandler) HandleCatchUp(m *Message)         { r.calls = append(r.calls, KindCatchUp) }
func (r *recordingHandler) HandleCatchUpResponse(m *Message) { r.calls = append(r.calls, KindCatchUpResponse) }
func (r *recordingHandler) HandleLogRequest(m *Message)      { r.calls = append(r.calls, KindLogRequest) }
func (r *recordingHandler) HandleLogResponse(m *Message)     { r.calls = append(r.calls, KindLogResponse) }

func TestDispatchEveryKind(t *testing.T) {
	for _, kind := range AllKinds {
		t.Run(kind.String(), func(t *testing.T) {
			h := &recordingHandler{}
			err := Dispatch(h, &Message{ID: "1", Kind: kind, From: "a"})

			if kind.Liveness() {
				if !errors.Is(err, ErrNotDispatchable) {
					t.Errorf("Dispatch(%s) error = %v, want ErrNotDispatchable", kind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dispatch(%s) failed: %v", kind, err)
			}
			if len(h.calls) != 1 || h.calls[0] != kind {
				t.Errorf("Dispatch(%s) called %v", kind, h.calls)
			}
		})
	}
}

func TestDispatchUnknownKind(t *testing.T) {
	err := Dispatch(&recordingHandler{}, &Message{ID: "1", Kind: "FISCH", From: "a"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
}
