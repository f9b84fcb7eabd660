package protocol

import "fmt"

// Handler processes every protocol kind above the reliability layer. Adding
// a kind means adding a method here, which breaks the build of every
// implementation until it handles the new kind.
type Handler interface {
	HandleElection(m *Message)
	HandleOK(m *Message)
	HandleVoteRequest(m *Message)
	HandleVoteResponse(m *Message)
	HandleLeaderAnnounce(m *Message)
	HandleProposeOp(m *Message)
	HandleAssignOp(m *Message)
	HandleResendRequest(m *Message)
	HandleCatchUp(m *Message)
	HandleCatchUpResponse(m *Message)
	HandleLogRequest(m *Message)
	HandleLogResponse(m *Message)
}

// Dispatch calls the Handler method matching the message kind.
func Dispatch(h Handler, m *Message) error {
	switch m.Kind {
	case KindElection:
		h.HandleElection(m)
	case KindOK:
		h.HandleOK(m)
	case KindVoteRequest:
		h.HandleVoteRequest(m)
	case KindVoteResponse:
		h.HandleVoteResponse(m)
	case KindLeaderAnnounce:
		h.HandleLeaderAnnounce(m)
	case KindProposeOp:
		h.HandleProposeOp(m)
	case KindAssignOp:
		h.HandleAssignOp(m)
	case KindResendRequest:
		h.HandleResendRequest(m)
	case KindCatchUp:
		h.HandleCatchUp(m)
	case KindCatchUpResponse:
		h.HandleCatchUpResponse(m)
	case KindLogRequest:
		h.HandleLogRequest(m)
	case KindLogResponse:
		h.HandleLogResponse(m)
	case KindAck, KindPing:
		return ErrNotDispatchable
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	return nil
}
