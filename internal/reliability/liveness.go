package reliability

import (
	"sort"

	"github.com/chriku/roomplan/internal/protocol"
)

func (l *Layer) heartbeat() {
	if !l.running {
		return
	}
	l.send(protocol.NewPing(l.cfg.Self))
	l.heartbeatTimer = l.clock.AfterFunc(l.cfg.HeartbeatInterval, l.heartbeat)
}

func (l *Layer) scheduleSweep() {
	l.sweepTimer = l.clock.AfterFunc(l.cfg.SweepInterval, func() {
		if !l.running {
			return
		}
		l.Sweep()
		l.scheduleSweep()
	})
}

// observe records that id was heard from now.
func (l *Layer) observe(id protocol.NodeID) {
	now := l.clock.Now()
	l.lastSeen[id] = now

	if _, ok := l.known[id]; !ok {
		l.known[id] = struct{}{}
		l.logger.Info("discovered node", "peer", id)
	} else if _, ok := l.active[id]; !ok {
		l.logger.Info("node back online", "peer", id)
	}

	if _, ok := l.active[id]; ok {
		return
	}
	l.active[id] = struct{}{}
	l.notifyView([]protocol.NodeID{id}, nil)
}

// Sweep demotes peers silent for longer than the liveness timeout and expires
// old dedup and early-ack entries. It runs periodically once started.
func (l *Layer) Sweep() {
	now := l.clock.Now()

	var left []protocol.NodeID
	for _, id := range sortedIDs(l.active) {
		if id == l.cfg.Self {
			continue
		}
		if now.Sub(l.lastSeen[id]) > l.cfg.LivenessTimeout {
			delete(l.active, id)
			left = append(left, id)
			l.logger.Warn("node offline", "peer", id, "silent", now.Sub(l.lastSeen[id]).String())
		}
	}

	if len(left) > 0 {
		// A dead peer acknowledges nothing; stop waiting on it.
		for _, tr := range l.sortedTrackers() {
			for _, id := range left {
				l.ack(tr, id)
			}
		}
	}

	for id, at := range l.finalized {
		if now.Sub(at) >= l.cfg.DedupWindow {
			delete(l.finalized, id)
		}
	}
	for id, parked := range l.earlyAcks {
		if !now.Before(parked.expires) {
			delete(l.earlyAcks, id)
		}
	}

	if len(left) > 0 {
		l.notifyView(nil, left)
	}
}

func (l *Layer) notifyView(joined, left []protocol.NodeID) {
	if l.receiver == nil {
		return
	}
	l.receiver.OnViewChange(ViewChange{
		Active: l.ActiveNodes(),
		Joined: joined,
		Left:   left,
	})
}

// KnownNodes returns every node ever heard from, self included, sorted.
func (l *Layer) KnownNodes() []protocol.NodeID {
	return sortedIDs(l.known)
}

// ActiveNodes returns the nodes heard from within the liveness timeout, self
// included, sorted.
func (l *Layer) ActiveNodes() []protocol.NodeID {
	return sortedIDs(l.active)
}

// IsActive reports whether id is in the active set.
func (l *Layer) IsActive(id protocol.NodeID) bool {
	_, ok := l.active[id]
	return ok
}

func sortedIDs(set map[protocol.NodeID]struct{}) []protocol.NodeID {
	out := make([]protocol.NodeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
