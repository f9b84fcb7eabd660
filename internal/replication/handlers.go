package replication

import (
	"sort"

	"github.com/chriku/roomplan/internal/protocol"
	"github.com/chriku/roomplan/internal/sched"
)

// HandleElection contests an election started by a lower-priority node.
func (sm *StateMachine) HandleElection(m *protocol.Message) {
	if m.From == sm.cfg.Self {
		return
	}

	if sm.cfg.Self.Outranks(m.From) {
		ok := sm.newMessage(protocol.KindOK)
		ok.To = m.From
		sm.net.BroadcastReliably(ok)
		sm.startElection("contesting election of " + string(m.From))
		return
	}

	// A higher-priority node is running; give up any own candidacy and
	// wait for its announcement.
	if sm.mode == Candidate {
		sched.StopTimer(sm.electionTimer)
		sched.StopTimer(sm.voteTimer)
		sched.StopTimer(sm.handoffTimer)
		sm.electionTimer = nil
		sm.voteTimer = nil
		sm.handoffTimer = nil
		sm.votes = nil
		sm.handoff = nil
		sm.mode = Follower
		sm.logger.Info("deferring to higher-priority candidate", "candidate", m.From, "epoch", sm.epoch)
	}
	sm.armWaitTimer()
}

// HandleOK stops a candidate that learned of a live contender.
func (sm *StateMachine) HandleOK(m *protocol.Message) {
	if sm.mode != Candidate || sm.electionTimer == nil {
		return
	}
	sm.electionTimer.Stop()
	sm.electionTimer = nil
	sm.logger.Info("contender alive, deferring", "from", m.From, "epoch", sm.electionEpoch)
	sm.armWaitTimer()
}

// armWaitTimer restarts the election if no leader is announced in time.
func (sm *StateMachine) armWaitTimer() {
	sched.StopTimer(sm.waitTimer)
	wait := sm.cfg.ElectionTimeout + 2*sm.cfg.VoteTimeout
	sm.waitTimer = sm.clock.AfterFunc(wait, func() {
		sm.waitTimer = nil
		if sm.leaderID == "" {
			sm.startElection("no leader announced")
		}
	})
}

// HandleVoteRequest reports this node's log position to the candidate.
func (sm *StateMachine) HandleVoteRequest(m *protocol.Message) {
	if m.From == sm.cfg.Self {
		return
	}
	resp := sm.newMessage(protocol.KindVoteResponse)
	resp.To = m.From
	resp.LastDeliveredSeq = sm.lastDelivered()
	resp.LastDeliveredOpID = sm.lastDeliveredOpID
	sm.net.BroadcastReliably(resp)
}

// HandleVoteResponse records a vote while the candidate is collecting.
func (sm *StateMachine) HandleVoteResponse(m *protocol.Message) {
	if sm.mode != Candidate || sm.votes == nil || m.EpochValue() != sm.epoch {
		return
	}
	sm.votes[m.From] = vote{lastSeq: m.LastDeliveredSeq, lastOpID: m.LastDeliveredOpID}
}

// HandleLeaderAnnounce adopts the announced leader.
func (sm *StateMachine) HandleLeaderAnnounce(m *protocol.Message) {
	sm.adoptLeader(m.LeaderID, m.LastSeq)
	sm.logger.Info("leader announced", "leader", sm.leaderID, "epoch", sm.epoch, "startSeq", m.StartSeq)
}

// adoptLeader follows leader and requests anything up to lastSeq that this
// node has not delivered.
func (sm *StateMachine) adoptLeader(leader protocol.NodeID, lastSeq int64) {
	sm.stopTimers()
	sm.votes = nil
	sm.handoff = nil
	sm.guard++

	sm.leaderID = leader
	if leader == sm.cfg.Self {
		sm.mode = Leader
	} else {
		sm.mode = Follower
		// Assignments buffered from a superseded leader are requested again.
		sm.dropPending()
		if sm.lastDelivered() < lastSeq {
			sm.requestResend(sm.nextSeqToDeliver, lastSeq)
		}
	}

	sm.flushProposals()
}

// HandleProposeOp sequences an operation forwarded to the leader.
func (sm *StateMachine) HandleProposeOp(m *protocol.Message) {
	if sm.mode != Leader {
		sm.logger.Debug("not leader, ignoring proposal", "op", m.Op.ID, "from", m.From)
		return
	}
	op := m.Op.Clone()
	op.SequenceNumber = protocol.Unassigned
	sm.assign(op)
}

// HandleAssignOp buffers an assignment from the leader and delivers what is
// in order.
func (sm *StateMachine) HandleAssignOp(m *protocol.Message) {
	if sm.leaderID == "" && sm.mode == Follower && m.From != sm.cfg.Self &&
		m.From == m.LeaderID && m.EpochValue() == sm.epoch {
		// The leader of the current epoch is assigning; follow it. The gap
		// below this assignment is requested like any other.
		sm.logger.Info("following assigning leader", "leader", m.From, "epoch", sm.epoch, "seq", m.Seq)
		sm.adoptLeader(m.From, 0)
	}
	if sm.leaderID == "" || m.From != sm.leaderID || m.LeaderID != sm.leaderID {
		sm.logger.Debug("assignment from non-leader", "from", m.From, "leader", sm.leaderID)
		return
	}

	seq := m.Seq
	if _, done := sm.delivered[m.Op.ID]; done {
		return
	}
	if seq < sm.nextSeqToDeliver {
		return
	}
	if _, buffered := sm.pending[seq]; buffered {
		return
	}

	if seq > sm.nextSeqToDeliver {
		sm.requestResend(sm.nextSeqToDeliver, seq)
	}

	sm.pending[seq] = m.Op.WithSequence(seq)
	sm.tryDeliverInOrder()
}

// HandleResendRequest replays logged assignments to a follower.
func (sm *StateMachine) HandleResendRequest(m *protocol.Message) {
	if sm.mode != Leader || m.LeaderID != sm.cfg.Self {
		return
	}

	to := m.ToSeq
	if last := sm.nextSeqToAssign - 1; to > last {
		to = last
	}
	for seq := m.FromSeq; seq <= to; seq++ {
		op, ok := sm.log[seq]
		if !ok {
			continue
		}
		sm.net.Send(sm.assignMessage(seq, op))
	}
	sm.logger.Debug("replayed assignments", "from", m.FromSeq, "to", to, "requester", m.From)
}

// HandleCatchUp tells a joining node who leads.
func (sm *StateMachine) HandleCatchUp(m *protocol.Message) {
	if m.From == sm.cfg.Self || sm.mode != Leader {
		return
	}
	resp := sm.newMessage(protocol.KindCatchUpResponse)
	resp.To = m.From
	resp.LeaderID = sm.cfg.Self
	resp.LastSeq = sm.lastDelivered()
	resp.NextSeqToAssign = sm.nextSeqToAssign
	sm.net.BroadcastReliably(resp)
}

// HandleCatchUpResponse adopts the leader a catch-up found.
func (sm *StateMachine) HandleCatchUpResponse(m *protocol.Message) {
	if m.LeaderID == "" || sm.mode == Leader {
		return
	}
	sm.logger.Info("caught up with leader", "leader", m.LeaderID, "epoch", sm.epoch, "lastSeq", m.LastSeq)
	sm.adoptLeader(m.LeaderID, m.LastSeq)
}

// HandleLogRequest sends delivered entries to a candidate, in chunks.
func (sm *StateMachine) HandleLogRequest(m *protocol.Message) {
	if m.From == sm.cfg.Self {
		return
	}

	entries := sm.logRange(m.FromSeq, m.ToSeq)
	for start := 0; start < len(entries) || start == 0; start += logChunk {
		end := start + logChunk
		if end > len(entries) {
			end = len(entries)
		}
		resp := sm.newMessage(protocol.KindLogResponse)
		resp.To = m.From
		resp.FromSeq = m.FromSeq
		resp.ToSeq = m.ToSeq
		resp.Entries = entries[start:end]
		sm.net.BroadcastReliably(resp)
		if end == len(entries) {
			break
		}
	}
}

// HandleLogResponse applies entries pulled from the donor and announces
// leadership once the candidate has caught up.
func (sm *StateMachine) HandleLogResponse(m *protocol.Message) {
	if sm.mode != Candidate || sm.handoff == nil || m.From != sm.handoff.donor {
		return
	}

	entries := append([]protocol.LogEntry(nil), m.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	for _, e := range entries {
		if e.Op == nil || e.Seq < sm.nextSeqToDeliver {
			continue
		}
		if _, buffered := sm.pending[e.Seq]; buffered {
			continue
		}
		sm.pending[e.Seq] = e.Op.WithSequence(e.Seq)
	}
	sm.tryDeliverInOrder()

	target := sm.handoff.target
	if sm.lastDelivered() >= target {
		sm.logger.Info("log handoff complete", "donor", m.From, "lastSeq", target)
		sm.announce(target)
		return
	}

	// Partial transfer; give the donor another period.
	sched.StopTimer(sm.handoffTimer)
	sm.armHandoffTimer()
}
