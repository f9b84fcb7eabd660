package protocol

// Kind identifies the type of a protocol message.
type Kind string

// Message kinds.
const (
	KindAck             Kind = "ACK"
	KindPing            Kind = "PING"
	KindElection        Kind = "ELECTION"
	KindOK              Kind = "OK"
	KindVoteRequest     Kind = "VOTE_REQUEST"
	KindVoteResponse    Kind = "VOTE_RESPONSE"
	KindLeaderAnnounce  Kind = "LEADER_ANNOUNCE"
	KindProposeOp       Kind = "PROPOSE_OP"
	KindAssignOp        Kind = "ASSIGN_OP"
	KindResendRequest   Kind = "RESEND_REQUEST"
	KindCatchUp         Kind = "CATCH_UP"
	KindCatchUpResponse Kind = "CATCH_UP_RESPONSE"
	KindLogRequest      Kind = "LOG_REQUEST"
	KindLogResponse     Kind = "LOG_RESPONSE"
)

// AllKinds lists every kind in the protocol.
var AllKinds = []Kind{
	KindAck,
	KindPing,
	KindElection,
	KindOK,
	KindVoteRequest,
	KindVoteResponse,
	KindLeaderAnnounce,
	KindProposeOp,
	KindAssignOp,
	KindResendRequest,
	KindCatchUp,
	KindCatchUpResponse,
	KindLogRequest,
	KindLogResponse,
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Reliable reports whether messages of this kind are broadcast with
// acknowledgements.
func (k Kind) Reliable() bool {
	switch k {
	case KindAck, KindPing, KindAssignOp:
		return false
	default:
		return k.Valid()
	}
}

// Election reports whether the kind belongs to the election family. Stale
// messages of these kinds make a node stand down its own candidacy.
func (k Kind) Election() bool {
	switch k {
	case KindElection, KindLeaderAnnounce, KindVoteRequest, KindVoteResponse:
		return true
	default:
		return false
	}
}

// Liveness reports whether the kind carries no epoch.
func (k Kind) Liveness() bool {
	return k == KindAck || k == KindPing
}

// Query reports whether the kind only asks for state. Queries are answered
// even when they carry an older epoch, so a restarted node can catch up.
func (k Kind) Query() bool {
	return k == KindCatchUp
}
