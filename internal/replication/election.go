package replication

import (
	"github.com/chriku/roomplan/internal/protocol"
	"github.com/chriku/roomplan/internal/sched"
)

// startElection begins a bully round for the next epoch.
func (sm *StateMachine) startElection(reason string) {
	sm.stopTimers()
	sm.votes = nil
	sm.handoff = nil
	sm.guard++

	sm.mode = Candidate
	sm.electionEpoch = sm.epoch + 1
	sm.logger.Info("starting election", "reason", reason, "epoch", sm.electionEpoch)

	msg := protocol.NewMessage(protocol.KindElection, sm.cfg.Self, protocol.Epoch(sm.electionEpoch))
	sm.net.BroadcastReliably(msg)

	epoch := sm.electionEpoch
	sm.electionTimer = sm.clock.AfterFunc(sm.cfg.ElectionTimeout, func() {
		sm.electionTimer = nil
		sm.becomeCandidateLeader(epoch)
	})
}

// becomeCandidateLeader asks every active node for its log position.
func (sm *StateMachine) becomeCandidateLeader(epoch int64) {
	if epoch > sm.epoch {
		sm.epoch = epoch
	}
	sm.mode = Candidate
	sm.votes = make(map[protocol.NodeID]vote)
	sm.logger.Info("no contender, requesting votes", "epoch", sm.epoch)

	sm.net.BroadcastReliably(sm.newMessage(protocol.KindVoteRequest))

	sm.voteTimer = sm.clock.AfterFunc(sm.cfg.VoteTimeout, func() {
		sm.voteTimer = nil
		sm.finishVote()
	})
}

// finishVote counts the votes. With a quorum, the candidate catches up with
// the most advanced voter if needed and announces itself.
func (sm *StateMachine) finishVote() {
	active := len(sm.net.ActiveNodes())
	quorum := active/2 + 1
	responses := len(sm.votes)

	if responses+1 < quorum {
		sm.logger.Warn("quorum not reached", "responses", responses+1, "quorum", quorum, "epoch", sm.epoch)
		sm.startElection("quorum not reached")
		return
	}

	local := sm.lastDelivered()
	maxSeq := local
	var donor protocol.NodeID
	for _, id := range sortedVoters(sm.votes) {
		if v := sm.votes[id]; v.lastSeq > maxSeq {
			maxSeq = v.lastSeq
			donor = id
		}
	}
	sm.votes = nil

	if maxSeq > local {
		sm.logger.Info("log behind quorum, requesting handoff",
			"donor", donor, "from", local+1, "to", maxSeq, "epoch", sm.epoch)
		sm.handoff = &handoff{donor: donor, target: maxSeq}

		req := sm.newMessage(protocol.KindLogRequest)
		req.To = donor
		req.FromSeq = local + 1
		req.ToSeq = maxSeq
		sm.net.BroadcastReliably(req)
		sm.armHandoffTimer()
		return
	}

	sm.announce(maxSeq)
}

func (sm *StateMachine) armHandoffTimer() {
	sm.handoffTimer = sm.clock.AfterFunc(sm.cfg.VoteTimeout, func() {
		sm.handoffTimer = nil
		if sm.handoff != nil {
			sm.logger.Warn("log handoff timed out", "donor", sm.handoff.donor, "epoch", sm.epoch)
		}
		sm.startElection("log handoff timed out")
	})
}

// announce makes this node the leader, sequencing from lastSeq+1.
func (sm *StateMachine) announce(lastSeq int64) {
	sm.stopTimers()
	sm.handoff = nil
	sm.guard++

	sm.mode = Leader
	sm.leaderID = sm.cfg.Self
	startSeq := lastSeq + 1
	sm.nextSeqToAssign = startSeq
	sm.assigned = make(map[string]int64)

	msg := sm.newMessage(protocol.KindLeaderAnnounce)
	msg.LeaderID = sm.cfg.Self
	msg.StartSeq = startSeq
	msg.LastSeq = lastSeq
	sm.net.BroadcastReliably(msg)

	sm.logger.Info("became leader", "epoch", sm.epoch, "startSeq", startSeq)

	// Buffered assignments of the previous leader will never complete;
	// sequence their operations again.
	stale := sm.dropPending()
	sm.queue = append(stale, sm.queue...)
	sm.flushProposals()
}

// killElection reacts to stale election traffic. A node that is not a
// candidate broadcasts a stand-down OK and restarts its own election after a
// random delay, unless something newer happens first.
//
// The restart can still fire after a legitimate leader has emerged.
func (sm *StateMachine) killElection() {
	if sm.mode == Candidate {
		return
	}

	stand := sm.newMessage(protocol.KindOK)
	sm.net.BroadcastReliably(stand)

	sm.guard++
	token := sm.guard
	sched.StopTimer(sm.standDownTimer)
	sm.standDownTimer = sm.clock.AfterFunc(sm.cfg.Jitter(), func() {
		sm.standDownTimer = nil
		if sm.guard != token {
			return
		}
		sm.startElection("stand-down restart")
	})
}
