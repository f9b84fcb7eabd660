package replication

import (
	"sort"

	"github.com/chriku/roomplan/internal/protocol"
)

// logChunk bounds the entries of one LOG_RESPONSE so it fits a datagram.
const logChunk = 64

// assign sequences op as leader, multicasts the assignment and delivers it
// locally.
func (sm *StateMachine) assign(op *protocol.Operation) {
	if _, done := sm.delivered[op.ID]; done {
		sm.logger.Debug("operation already delivered", "op", op.ID)
		return
	}
	if seq, ok := sm.assigned[op.ID]; ok {
		sm.logger.Debug("operation already assigned", "op", op.ID, "seq", seq)
		return
	}

	seq := sm.nextSeqToAssign
	sm.nextSeqToAssign++
	stamped := op.WithSequence(seq)
	sm.assigned[op.ID] = seq

	sm.net.Send(sm.assignMessage(seq, stamped))
	sm.logger.Debug("assigned operation", "op", op.ID, "seq", seq, "causedBy", op.CausedBy)

	sm.pending[seq] = stamped
	sm.tryDeliverInOrder()
}

func (sm *StateMachine) assignMessage(seq int64, op *protocol.Operation) *protocol.Message {
	msg := sm.newMessage(protocol.KindAssignOp)
	msg.LeaderID = sm.cfg.Self
	msg.Seq = seq
	msg.Op = op
	return msg
}

// forward sends op to the leader and remembers it until it is delivered.
func (sm *StateMachine) forward(op *protocol.Operation) {
	if _, ok := sm.inflight[op.ID]; !ok {
		sm.inflight[op.ID] = op
		sm.inflightOrder = append(sm.inflightOrder, op.ID)
	}

	msg := sm.newMessage(protocol.KindProposeOp)
	msg.To = sm.leaderID
	msg.Op = op
	sm.net.BroadcastReliably(msg)
	sm.logger.Debug("forwarded operation", "op", op.ID, "leader", sm.leaderID)
}

// flushProposals hands queued and in-flight operations to the current
// leader.
func (sm *StateMachine) flushProposals() {
	queued := sm.queue
	sm.queue = nil

	switch sm.mode {
	case Leader:
		for _, id := range sm.inflightOrder {
			if op, ok := sm.inflight[id]; ok {
				sm.assign(op)
			}
		}
		for _, op := range queued {
			sm.assign(op)
		}
	case Follower:
		if sm.leaderID == "" {
			sm.queue = queued
			return
		}
		for _, id := range sm.inflightOrder {
			if op, ok := sm.inflight[id]; ok {
				sm.forward(op)
			}
		}
		for _, op := range queued {
			sm.forward(op)
		}
	default:
		sm.queue = queued
	}
}

// dropPending discards buffered assignments and returns their operations in
// sequence order.
func (sm *StateMachine) dropPending() []*protocol.Operation {
	if len(sm.pending) == 0 {
		return nil
	}
	seqs := make([]int64, 0, len(sm.pending))
	for seq := range sm.pending {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	ops := make([]*protocol.Operation, 0, len(seqs))
	for _, seq := range seqs {
		op := sm.pending[seq].Clone()
		op.SequenceNumber = protocol.Unassigned
		ops = append(ops, op)
	}
	sm.logger.Debug("discarding buffered assignments", "count", len(seqs), "from", seqs[0])
	sm.pending = make(map[int64]*protocol.Operation)
	return ops
}

// tryDeliverInOrder applies buffered operations while the next sequence
// number is present.
func (sm *StateMachine) tryDeliverInOrder() {
	for {
		seq := sm.nextSeqToDeliver
		op, ok := sm.pending[seq]
		if !ok {
			return
		}
		delete(sm.pending, seq)

		sm.log[seq] = op
		sm.nextSeqToDeliver++
		sm.lastDeliveredOpID = op.ID
		sm.removeInflight(op.ID)

		if _, dup := sm.delivered[op.ID]; dup {
			sm.logger.Warn("operation delivered twice, skipping apply", "op", op.ID, "seq", seq)
			continue
		}
		sm.delivered[op.ID] = struct{}{}
		sm.apply(op)
	}
}

func (sm *StateMachine) apply(op *protocol.Operation) {
	sm.logger.Debug("applying operation", "op", op.ID, "seq", op.SequenceNumber, "kind", op.Kind)
	if sm.applier == nil {
		return
	}
	switch op.Kind {
	case protocol.OpBookRoom:
		sm.applier.ApplyBooking(op)
	case protocol.OpCancelRoom:
		sm.applier.ApplyCancel(op)
	default:
		sm.logger.Warn("unknown operation kind", "op", op.ID, "kind", op.Kind)
	}
}

func (sm *StateMachine) removeInflight(id string) {
	if _, ok := sm.inflight[id]; !ok {
		return
	}
	delete(sm.inflight, id)
	for i, x := range sm.inflightOrder {
		if x == id {
			sm.inflightOrder = append(sm.inflightOrder[:i], sm.inflightOrder[i+1:]...)
			break
		}
	}
}

// requestResend asks the leader for [from, to].
func (sm *StateMachine) requestResend(from, to int64) {
	if sm.leaderID == "" || to < from {
		return
	}
	msg := sm.newMessage(protocol.KindResendRequest)
	msg.To = sm.leaderID
	msg.LeaderID = sm.leaderID
	msg.FromSeq = from
	msg.ToSeq = to
	sm.net.BroadcastReliably(msg)
	sm.logger.Info("requesting resend", "from", from, "to", to, "leader", sm.leaderID)
}

// logRange returns the delivered entries in [from, to].
func (sm *StateMachine) logRange(from, to int64) []protocol.LogEntry {
	if from < 1 {
		from = 1
	}
	var entries []protocol.LogEntry
	for seq := from; seq <= to; seq++ {
		if op, ok := sm.log[seq]; ok {
			entries = append(entries, protocol.LogEntry{Seq: seq, Op: op})
		}
	}
	return entries
}
