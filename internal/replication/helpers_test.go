package replication

import (
	"fmt"
	"testing"
	"time"

	"github.com/chriku/roomplan/internal/protocol"
	"github.com/chriku/roomplan/internal/reliability"
	"github.com/chriku/roomplan/internal/sched"
	"github.com/chriku/roomplan/internal/transport"
)

// recordingApplier records applied operations.
type recordingApplier struct {
	applied []*protocol.Operation
}

func (a *recordingApplier) ApplyBooking(op *protocol.Operation) {
	a.applied = append(a.applied, op)
}

func (a *recordingApplier) ApplyCancel(op *protocol.Operation) {
	a.applied = append(a.applied, op)
}

func (a *recordingApplier) count(id string) int {
	n := 0
	for _, op := range a.applied {
		if op.ID == id {
			n++
		}
	}
	return n
}

// fakeNetwork captures what a single state machine sends.
type fakeNetwork struct {
	active    []protocol.NodeID
	broadcast []*protocol.Message
	sent      []*protocol.Message
}

func (n *fakeNetwork) BroadcastReliably(msg *protocol.Message) {
	n.broadcast = append(n.broadcast, msg)
}

func (n *fakeNetwork) Send(msg *protocol.Message) {
	n.sent = append(n.sent, msg)
}

func (n *fakeNetwork) ActiveNodes() []protocol.NodeID {
	return n.active
}

func (n *fakeNetwork) kind(kind protocol.Kind) []*protocol.Message {
	var out []*protocol.Message
	for _, m := range n.broadcast {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	for _, m := range n.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (n *fakeNetwork) reset() {
	n.broadcast = nil
	n.sent = nil
}

func testConfig(self protocol.NodeID) Config {
	cfg := DefaultConfig(self)
	cfg.Jitter = func() time.Duration { return time.Second }
	return cfg
}

func newTestMachine(self protocol.NodeID, active ...protocol.NodeID) (*StateMachine, *fakeNetwork, *recordingApplier, *sched.Virtual) {
	clock := sched.NewVirtual(time.Unix(0, 0))
	net := &fakeNetwork{active: append([]protocol.NodeID{self}, active...)}
	applier := &recordingApplier{}
	sm := New(testConfig(self), clock, net, applier, nil)
	return sm, net, applier, clock
}

func newTestOp(name string) *protocol.Operation {
	return &protocol.Operation{
		ID:             "op-" + name,
		Kind:           protocol.OpBookRoom,
		SequenceNumber: protocol.Unassigned,
		Timestamp:      time.Unix(0, 0).UTC(),
	}
}

// msgFrom builds an incoming message at the given epoch.
func msgFrom(kind protocol.Kind, from protocol.NodeID, epoch int64) *protocol.Message {
	return protocol.NewMessage(kind, from, protocol.Epoch(epoch))
}

func assignFrom(leader protocol.NodeID, epoch, seq int64, op *protocol.Operation) *protocol.Message {
	m := msgFrom(protocol.KindAssignOp, leader, epoch)
	m.LeaderID = leader
	m.Seq = seq
	m.Op = op.WithSequence(seq)
	return m
}

// followerOf returns a started machine following leader at epoch.
func followerOf(self, leader protocol.NodeID, epoch int64) (*StateMachine, *fakeNetwork, *recordingApplier, *sched.Virtual) {
	sm, net, applier, clock := newTestMachine(self, leader)
	sm.Start()
	announce := msgFrom(protocol.KindLeaderAnnounce, leader, epoch)
	announce.LeaderID = leader
	announce.StartSeq = 1
	sm.OnDeliver(announce)
	net.reset()
	return sm, net, applier, clock
}

// testNode is one member of an in-memory cluster.
type testNode struct {
	layer     *reliability.Layer
	sm        *StateMachine
	applier   *recordingApplier
	transport *transport.MemTransport
}

// testCluster runs full nodes on an in-memory network and a virtual clock.
type testCluster struct {
	t       *testing.T
	clock   *sched.Virtual
	network *transport.Network
	ids     []protocol.NodeID
	nodes   map[protocol.NodeID]*testNode
}

func newTestCluster(t *testing.T, ids ...protocol.NodeID) *testCluster {
	t.Helper()

	c := &testCluster{
		t:       t,
		clock:   sched.NewVirtual(time.Unix(0, 0)),
		network: transport.NewNetwork(),
		ids:     ids,
		nodes:   make(map[protocol.NodeID]*testNode),
	}

	for _, id := range ids {
		tr := c.network.Join(id)
		layer := reliability.NewLayer(reliability.DefaultConfig(id), c.clock, tr, nil)
		applier := &recordingApplier{}
		sm := New(testConfig(id), c.clock, layer, applier, nil)
		layer.SetReceiver(sm)
		if err := tr.Listen(layer.HandleIncoming); err != nil {
			t.Fatalf("Listen failed: %v", err)
		}
		c.nodes[id] = &testNode{layer: layer, sm: sm, applier: applier, transport: tr}
	}

	for _, id := range ids {
		if err := c.nodes[id].layer.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
	}
	c.network.Flush()
	return c
}

// start starts every state machine.
func (c *testCluster) start() {
	for _, id := range c.ids {
		c.nodes[id].sm.Start()
	}
	c.network.Flush()
}

// run advances virtual time in small steps, delivering traffic after each.
func (c *testCluster) run(d time.Duration) {
	const step = 100 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		c.clock.Advance(step)
		c.network.Flush()
	}
}

func (c *testCluster) sm(id protocol.NodeID) *StateMachine {
	return c.nodes[id].sm
}

// leaders returns the nodes that believe they lead.
func (c *testCluster) leaders() []protocol.NodeID {
	var out []protocol.NodeID
	for _, id := range c.ids {
		if c.nodes[id].sm.Mode() == Leader {
			out = append(out, id)
		}
	}
	return out
}

// electLeader starts the cluster and waits until a single leader is
// settled.
func (c *testCluster) electLeader() protocol.NodeID {
	c.t.Helper()
	c.start()
	c.run(40 * time.Second)

	leaders := c.leaders()
	if len(leaders) != 1 {
		c.t.Fatalf("expected one leader, got %v", leaders)
	}
	return leaders[0]
}

// logIDs returns the operation ids of a node's log in sequence order.
func (c *testCluster) logIDs(id protocol.NodeID) []string {
	var out []string
	for _, e := range c.sm(id).Log() {
		out = append(out, e.Op.ID)
	}
	return out
}

// checkAgreement verifies that every node's log is gap-free and that nodes
// agree on every sequence they both delivered.
func (c *testCluster) checkAgreement() {
	c.t.Helper()

	bySeq := make(map[int64]string)
	for _, id := range c.ids {
		sm := c.sm(id)
		for seq := int64(1); seq <= sm.LastDelivered(); seq++ {
			op, ok := sm.LogEntry(seq)
			if !ok {
				c.t.Fatalf("%s: gap at seq %d below cursor %d", id, seq, sm.LastDelivered()+1)
			}
			if op.SequenceNumber != seq {
				c.t.Errorf("%s: entry at %d carries sequence %d", id, seq, op.SequenceNumber)
			}
			if prev, seen := bySeq[seq]; seen && prev != op.ID {
				c.t.Errorf("disagreement at seq %d: %s vs %s (node %s)", seq, prev, op.ID, id)
			}
			bySeq[seq] = op.ID
		}
	}
}

func opName(i int) string {
	return fmt.Sprintf("%03d", i)
}
