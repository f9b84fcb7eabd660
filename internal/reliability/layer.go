package reliability

import (
	"sort"
	"time"

	"github.com/chriku/roomplan/internal/logging"
	"github.com/chriku/roomplan/internal/protocol"
	"github.com/chriku/roomplan/internal/sched"
)

// tracker is the acknowledgement state of one reliable message.
type tracker struct {
	msg     *protocol.Message
	seq     uint64
	pending map[protocol.NodeID]struct{}
	retry   map[protocol.NodeID]sched.Timer
}

// parkedAcks holds acknowledgements that arrived before the message itself.
type parkedAcks struct {
	from    map[protocol.NodeID]struct{}
	expires time.Time
}

// Layer is the reliable broadcast and failure detector of one node.
type Layer struct {
	cfg      Config
	clock    sched.Clock
	sender   Sender
	receiver Receiver
	logger   logging.Logger

	known    map[protocol.NodeID]struct{}
	active   map[protocol.NodeID]struct{}
	lastSeen map[protocol.NodeID]time.Time

	trackers   map[string]*tracker
	trackerSeq uint64
	finalized  map[string]time.Time
	earlyAcks  map[string]*parkedAcks

	heartbeatTimer sched.Timer
	sweepTimer     sched.Timer
	running        bool
}

// NewLayer creates a reliability layer sending through sender. Timers are
// created with clock.
func NewLayer(cfg Config, clock sched.Clock, sender Sender, logger logging.Logger) *Layer {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}

	l := &Layer{
		cfg:       cfg,
		clock:     clock,
		sender:    sender,
		logger:    logger.WithComponent("reliability"),
		known:     make(map[protocol.NodeID]struct{}),
		active:    make(map[protocol.NodeID]struct{}),
		lastSeen:  make(map[protocol.NodeID]time.Time),
		trackers:  make(map[string]*tracker),
		finalized: make(map[string]time.Time),
		earlyAcks: make(map[string]*parkedAcks),
	}
	l.known[cfg.Self] = struct{}{}
	l.active[cfg.Self] = struct{}{}
	return l
}

// SetReceiver installs the protocol layer.
func (l *Layer) SetReceiver(r Receiver) {
	l.receiver = r
}

// Self returns the local node id.
func (l *Layer) Self() protocol.NodeID {
	return l.cfg.Self
}

// Start sends the first heartbeat and starts the heartbeat and sweep timers.
func (l *Layer) Start() error {
	if l.receiver == nil {
		return ErrNoReceiver
	}
	if l.running {
		return nil
	}
	l.running = true

	l.heartbeat()
	l.scheduleSweep()
	return nil
}

// Stop cancels every timer. Trackers are kept so queries still answer.
func (l *Layer) Stop() {
	if !l.running {
		return
	}
	l.running = false

	sched.StopTimer(l.heartbeatTimer)
	sched.StopTimer(l.sweepTimer)
	for _, tr := range l.trackers {
		for peer, timer := range tr.retry {
			timer.Stop()
			delete(tr.retry, peer)
		}
	}
}

// Running reports whether the layer is started.
func (l *Layer) Running() bool {
	return l.running
}

// BroadcastReliably multicasts msg and re-sends it to every active peer
// until that peer acknowledges it or is demoted. A message with no active
// peers finalizes immediately.
func (l *Layer) BroadcastReliably(msg *protocol.Message) {
	if _, exists := l.trackers[msg.ID]; exists {
		return
	}

	tr := l.newTracker(msg, l.cfg.Self)
	l.send(msg)

	if len(tr.pending) == 0 {
		l.finalize(tr)
		return
	}
	for peer := range tr.pending {
		l.scheduleRetry(tr, peer)
	}
}

// Send multicasts msg once without tracking.
func (l *Layer) Send(msg *protocol.Message) {
	l.send(msg)
}

// HandleIncoming processes a message received from the transport.
func (l *Layer) HandleIncoming(msg *protocol.Message) {
	if msg.From == l.cfg.Self {
		return
	}

	// A copy of a message already seen may come from a peer re-sending it,
	// so it says nothing about the originator.
	if msg.Kind.Liveness() || !l.seen(msg.ID) {
		l.observe(msg.From)
	}

	switch msg.Kind {
	case protocol.KindAck:
		l.handleAck(msg)
	case protocol.KindPing:
		// Liveness only.
	default:
		if !msg.Kind.Reliable() {
			l.deliverUnreliable(msg)
			return
		}
		l.handleReliable(msg)
	}
}

func (l *Layer) handleAck(msg *protocol.Message) {
	tr, ok := l.trackers[msg.AckFor]
	if !ok {
		if !l.isFinalized(msg.AckFor) {
			l.parkAck(msg.AckFor, msg.From)
		}
		return
	}
	l.ack(tr, msg.From)
}

func (l *Layer) handleReliable(msg *protocol.Message) {
	if _, tracked := l.trackers[msg.ID]; !tracked && !l.isFinalized(msg.ID) {
		l.mirror(msg)
	}
	l.send(protocol.NewAck(l.cfg.Self, msg.ID))
}

// mirror tracks a received message the way its sender does, so that this
// node delivers it once every other active peer has seen it.
func (l *Layer) mirror(msg *protocol.Message) {
	tr := l.newTracker(msg, msg.From)

	if parked, ok := l.earlyAcks[msg.ID]; ok {
		delete(l.earlyAcks, msg.ID)
		for peer := range parked.from {
			delete(tr.pending, peer)
		}
	}

	if len(tr.pending) == 0 {
		l.finalize(tr)
		return
	}
	for peer := range tr.pending {
		l.scheduleRetry(tr, peer)
	}
}

func (l *Layer) deliverUnreliable(msg *protocol.Message) {
	if l.isFinalized(msg.ID) {
		return
	}
	l.finalized[msg.ID] = l.clock.Now()
	if l.receiver != nil {
		l.receiver.OnDeliver(msg)
	}
}

func (l *Layer) newTracker(msg *protocol.Message, origin protocol.NodeID) *tracker {
	l.trackerSeq++
	tr := &tracker{
		msg:     msg,
		seq:     l.trackerSeq,
		pending: make(map[protocol.NodeID]struct{}),
		retry:   make(map[protocol.NodeID]sched.Timer),
	}
	for id := range l.active {
		if id != l.cfg.Self && id != origin {
			tr.pending[id] = struct{}{}
		}
	}
	l.trackers[msg.ID] = tr
	return tr
}

func (l *Layer) scheduleRetry(tr *tracker, peer protocol.NodeID) {
	if !l.running {
		return
	}
	tr.retry[peer] = l.clock.AfterFunc(l.cfg.RetryInterval, func() {
		l.retry(tr, peer)
	})
}

func (l *Layer) retry(tr *tracker, peer protocol.NodeID) {
	if l.trackers[tr.msg.ID] != tr {
		return
	}
	if _, pending := tr.pending[peer]; !pending {
		return
	}
	delete(tr.retry, peer)

	if !l.IsActive(peer) {
		l.logger.Debug("peer inactive, dropping from pending acks", "peer", peer, "kind", tr.msg.Kind, "id", tr.msg.ID)
		l.ack(tr, peer)
		return
	}

	l.logger.Debug("retrying message", "peer", peer, "kind", tr.msg.Kind, "id", tr.msg.ID)
	l.send(tr.msg)
	l.scheduleRetry(tr, peer)
}

// ack removes peer from the pending set of tr and finalizes it when the set
// becomes empty.
func (l *Layer) ack(tr *tracker, peer protocol.NodeID) {
	if _, pending := tr.pending[peer]; !pending {
		return
	}
	if timer, ok := tr.retry[peer]; ok {
		timer.Stop()
		delete(tr.retry, peer)
	}
	delete(tr.pending, peer)

	if len(tr.pending) == 0 {
		l.finalize(tr)
	}
}

func (l *Layer) finalize(tr *tracker) {
	if l.trackers[tr.msg.ID] != tr {
		return
	}
	delete(l.trackers, tr.msg.ID)
	for peer, timer := range tr.retry {
		timer.Stop()
		delete(tr.retry, peer)
	}
	l.finalized[tr.msg.ID] = l.clock.Now()

	// The originating node acted on its message when sending it.
	if tr.msg.From == l.cfg.Self {
		return
	}
	if l.receiver != nil {
		l.receiver.OnDeliver(tr.msg)
	}
}

func (l *Layer) parkAck(id string, from protocol.NodeID) {
	parked, ok := l.earlyAcks[id]
	if !ok {
		parked = &parkedAcks{from: make(map[protocol.NodeID]struct{})}
		l.earlyAcks[id] = parked
	}
	parked.from[from] = struct{}{}
	parked.expires = l.clock.Now().Add(l.cfg.DedupWindow)
}

func (l *Layer) seen(id string) bool {
	_, tracked := l.trackers[id]
	return tracked || l.isFinalized(id)
}

func (l *Layer) isFinalized(id string) bool {
	at, ok := l.finalized[id]
	if !ok {
		return false
	}
	return l.clock.Now().Sub(at) < l.cfg.DedupWindow
}

func (l *Layer) send(msg *protocol.Message) {
	if err := l.sender.Multicast(msg); err != nil {
		l.logger.Debug("send failed", "kind", msg.Kind, "id", msg.ID, "error", err)
	}
}

// sortedTrackers returns the trackers in creation order.
func (l *Layer) sortedTrackers() []*tracker {
	out := make([]*tracker, 0, len(l.trackers))
	for _, tr := range l.trackers {
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Pending returns the peers that have not acknowledged the message with the
// given id, or nil if the message is not tracked.
func (l *Layer) Pending(id string) []protocol.NodeID {
	tr, ok := l.trackers[id]
	if !ok {
		return nil
	}
	return sortedIDs(tr.pending)
}

// Tracked reports whether the message with the given id awaits
// acknowledgements.
func (l *Layer) Tracked(id string) bool {
	_, ok := l.trackers[id]
	return ok
}

// Finalized reports whether the message with the given id was finalized
// within the dedup window.
func (l *Layer) Finalized(id string) bool {
	return l.isFinalized(id)
}
