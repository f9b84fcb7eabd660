package replication

import (
	"errors"
	"sort"

	"github.com/chriku/roomplan/internal/logging"
	"github.com/chriku/roomplan/internal/protocol"
	"github.com/chriku/roomplan/internal/reliability"
	"github.com/chriku/roomplan/internal/sched"
)

var _ protocol.Handler = (*StateMachine)(nil)

// vote is one VOTE_RESPONSE collected by a candidate.
type vote struct {
	lastSeq  int64
	lastOpID string
}

// handoff is a candidate's pending log transfer from the donor.
type handoff struct {
	donor  protocol.NodeID
	target int64
}

// StateMachine is the replication and election state of one node.
type StateMachine struct {
	cfg     Config
	clock   sched.Clock
	net     Network
	applier Applier
	logger  logging.Logger

	mode          Mode
	epoch         int64
	electionEpoch int64
	leaderID      protocol.NodeID

	// Sequencer state.
	nextSeqToAssign   int64
	nextSeqToDeliver  int64
	log               map[int64]*protocol.Operation
	pending           map[int64]*protocol.Operation
	delivered         map[string]struct{}
	lastDeliveredOpID string
	assigned          map[string]int64

	// Proposals waiting for a leader, and forwarded proposals not yet
	// delivered.
	queue         []*protocol.Operation
	inflight      map[string]*protocol.Operation
	inflightOrder []string

	// Election state.
	votes          map[protocol.NodeID]vote
	handoff        *handoff
	guard          uint64
	electionTimer  sched.Timer
	voteTimer      sched.Timer
	handoffTimer   sched.Timer
	waitTimer      sched.Timer
	discoveryTimer sched.Timer
	standDownTimer sched.Timer

	started bool
}

// New creates a state machine. It starts as a follower with no leader.
func New(cfg Config, clock sched.Clock, net Network, applier Applier, logger logging.Logger) *StateMachine {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}

	return &StateMachine{
		cfg:              cfg,
		clock:            clock,
		net:              net,
		applier:          applier,
		logger:           logger.WithComponent("replication"),
		mode:             Follower,
		nextSeqToDeliver: 1,
		log:              make(map[int64]*protocol.Operation),
		pending:          make(map[int64]*protocol.Operation),
		delivered:        make(map[string]struct{}),
		assigned:         make(map[string]int64),
		inflight:         make(map[string]*protocol.Operation),
	}
}

// Start looks for an existing leader. If none answers within the discovery
// timeout, the node starts an election.
func (sm *StateMachine) Start() {
	if sm.started {
		return
	}
	sm.started = true
	sm.discover()
}

// discover asks the group for its leader and starts an election if nobody
// answers within the discovery timeout.
func (sm *StateMachine) discover() {
	sm.logger.Info("looking for leader", "epoch", sm.epoch)
	sm.net.BroadcastReliably(sm.newMessage(protocol.KindCatchUp))

	sched.StopTimer(sm.discoveryTimer)
	sm.discoveryTimer = sm.clock.AfterFunc(sm.cfg.DiscoveryTimeout, func() {
		sm.discoveryTimer = nil
		if sm.leaderID == "" && sm.mode == Follower {
			sm.startElection("no leader discovered")
		}
	})
}

// Stop cancels every timer.
func (sm *StateMachine) Stop() {
	sm.started = false
	sm.stopTimers()
}

// ProposeOperation submits a client operation for sequencing.
func (sm *StateMachine) ProposeOperation(op *protocol.Operation) ProposeResult {
	op = op.Clone()
	op.CausedBy = sm.cfg.Self
	op.SequenceNumber = protocol.Unassigned

	switch {
	case sm.mode == Leader:
		sm.assign(op)
		return ProposedAsLeader
	case sm.leaderID == "" || sm.mode != Follower:
		sm.queue = append(sm.queue, op)
		sm.logger.Info("no leader, queueing operation", "op", op.ID, "queued", len(sm.queue))
		return QueuedNoLeader
	default:
		sm.forward(op)
		return ForwardedToLeader
	}
}

// OnDeliver processes a message delivered by the reliability layer.
func (sm *StateMachine) OnDeliver(msg *protocol.Message) {
	if msg.Addressed() && msg.To != sm.cfg.Self {
		return
	}

	adopted := false
	if msg.HasEpoch() {
		e := *msg.Epoch
		if msg.From != sm.cfg.Self && e < sm.epoch && !msg.Kind.Query() {
			sm.onStale(msg)
			return
		}
		if e > sm.epoch {
			sm.adoptEpoch(e)
			adopted = true
		}
	}

	if err := protocol.Dispatch(sm, msg); err != nil && !errors.Is(err, protocol.ErrNotDispatchable) {
		sm.logger.Warn("dropping message", "kind", msg.Kind, "from", msg.From, "error", err)
	}

	if adopted {
		sm.watchForLeader(msg.Kind)
	}
}

// onStale handles a message from an older epoch. Stale election traffic
// triggers a stand-down. A leader that hears a deposed leader still assigning
// runs a new election so the most advanced log wins.
func (sm *StateMachine) onStale(msg *protocol.Message) {
	switch {
	case msg.Kind.Election():
		sm.logger.Debug("stale election traffic", "kind", msg.Kind, "from", msg.From, "epoch", msg.EpochValue(), "current", sm.epoch)
		sm.killElection()
	case msg.Kind == protocol.KindAssignOp && sm.mode == Leader && msg.LeaderID == msg.From:
		sm.logger.Warn("deposed leader still assigning", "leader", msg.From, "epoch", msg.EpochValue(), "current", sm.epoch)
		sm.startElection("deposed leader " + string(msg.From) + " still assigning")
	}
}

// watchForLeader runs after a newer epoch was adopted. A follower that
// learned no leader from the message waits for an announcement after
// election traffic and asks for the leader otherwise.
func (sm *StateMachine) watchForLeader(kind protocol.Kind) {
	if !sm.started || sm.mode != Follower || sm.leaderID != "" || !sm.idle() {
		return
	}
	if kind.Election() || kind == protocol.KindOK {
		sm.armWaitTimer()
		return
	}
	sm.discover()
}

// OnViewChange reacts to changes of the active set. A node whose leader left
// the active set, or a leaderless idle follower, starts an election.
func (sm *StateMachine) OnViewChange(change reliability.ViewChange) {
	if !sm.started || sm.mode != Follower {
		return
	}

	if sm.leaderID != "" && sm.leaderID != sm.cfg.Self && !containsID(change.Active, sm.leaderID) {
		sm.logger.Warn("leader left the active set", "leader", sm.leaderID, "epoch", sm.epoch)
		sm.leaderID = ""
		sm.startElection("leader unreachable")
		return
	}

	if sm.leaderID == "" && sm.idle() {
		sm.startElection("view changed without leader")
	}
}

// adoptEpoch moves to a newer epoch: the node reverts to follower and
// forgets the leader, votes and every timer.
func (sm *StateMachine) adoptEpoch(e int64) {
	sm.logger.Debug("adopting epoch", "epoch", e, "previous", sm.epoch)
	sm.epoch = e
	sm.mode = Follower
	sm.leaderID = ""
	sm.votes = nil
	sm.handoff = nil
	sm.guard++
	sm.stopTimers()
}

func (sm *StateMachine) stopTimers() {
	sched.StopTimer(sm.electionTimer)
	sched.StopTimer(sm.voteTimer)
	sched.StopTimer(sm.handoffTimer)
	sched.StopTimer(sm.waitTimer)
	sched.StopTimer(sm.discoveryTimer)
	sched.StopTimer(sm.standDownTimer)
	sm.electionTimer = nil
	sm.voteTimer = nil
	sm.handoffTimer = nil
	sm.waitTimer = nil
	sm.discoveryTimer = nil
	sm.standDownTimer = nil
}

// idle reports whether no election, discovery or stand-down is under way.
func (sm *StateMachine) idle() bool {
	return sm.electionTimer == nil && sm.voteTimer == nil && sm.handoffTimer == nil &&
		sm.waitTimer == nil && sm.discoveryTimer == nil && sm.standDownTimer == nil
}

func (sm *StateMachine) newMessage(kind protocol.Kind) *protocol.Message {
	return protocol.NewMessage(kind, sm.cfg.Self, protocol.Epoch(sm.epoch))
}

func (sm *StateMachine) lastDelivered() int64 {
	return sm.nextSeqToDeliver - 1
}

// Self returns the local node id.
func (sm *StateMachine) Self() protocol.NodeID {
	return sm.cfg.Self
}

// Mode returns the current role.
func (sm *StateMachine) Mode() Mode {
	return sm.mode
}

// Epoch returns the current epoch.
func (sm *StateMachine) Epoch() int64 {
	return sm.epoch
}

// LeaderID returns the known leader, or "" if none.
func (sm *StateMachine) LeaderID() protocol.NodeID {
	return sm.leaderID
}

// LastDelivered returns the highest sequence number applied.
func (sm *StateMachine) LastDelivered() int64 {
	return sm.lastDelivered()
}

// NextSeqToAssign returns the sequence number the leader assigns next.
func (sm *StateMachine) NextSeqToAssign() int64 {
	return sm.nextSeqToAssign
}

// LogEntry returns the operation delivered at seq.
func (sm *StateMachine) LogEntry(seq int64) (*protocol.Operation, bool) {
	op, ok := sm.log[seq]
	return op, ok
}

// Log returns the delivered log in sequence order.
func (sm *StateMachine) Log() []protocol.LogEntry {
	return sm.logRange(1, sm.lastDelivered())
}

// Status is a snapshot of a StateMachine for display.
type Status struct {
	Self            protocol.NodeID `json:"self"`
	Mode            string          `json:"mode"`
	Epoch           int64           `json:"epoch"`
	LeaderID        protocol.NodeID `json:"leaderId,omitempty"`
	LastDelivered   int64           `json:"lastDelivered"`
	NextSeqToAssign int64           `json:"nextSeqToAssign,omitempty"`
	Queued          int             `json:"queued"`
	InFlight        int             `json:"inFlight"`
	Buffered        int             `json:"buffered"`
}

// Snapshot returns the current status.
func (sm *StateMachine) Snapshot() Status {
	s := Status{
		Self:          sm.cfg.Self,
		Mode:          sm.mode.String(),
		Epoch:         sm.epoch,
		LeaderID:      sm.leaderID,
		LastDelivered: sm.lastDelivered(),
		Queued:        len(sm.queue),
		InFlight:      len(sm.inflight),
		Buffered:      len(sm.pending),
	}
	if sm.mode == Leader {
		s.NextSeqToAssign = sm.nextSeqToAssign
	}
	return s
}

func containsID(ids []protocol.NodeID, id protocol.NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func sortedVoters(votes map[protocol.NodeID]vote) []protocol.NodeID {
	out := make([]protocol.NodeID, 0, len(votes))
	for id := range votes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
