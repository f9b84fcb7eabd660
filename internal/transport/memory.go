package transport

import (
	"sync"

	"github.com/chriku/roomplan/internal/protocol"
)

// DropFunc decides whether the copy of msg sent from one node to another is
// lost. It is evaluated at send time.
type DropFunc func(from, to protocol.NodeID, msg *protocol.Message) bool

// Network simulates a multicast group for testing. Sends are queued and
// delivered by Flush or Step on the caller's goroutine.
type Network struct {
	members  map[protocol.NodeID]*MemTransport
	order    []protocol.NodeID
	queue    []delivery
	sent     []*protocol.Message
	isolated map[protocol.NodeID]bool
	drop     DropFunc
	dup      bool
	dropped  int
	mu       sync.Mutex
}

type delivery struct {
	from protocol.NodeID
	to   protocol.NodeID
	data []byte
}

// NewNetwork creates an empty in-memory group.
func NewNetwork() *Network {
	return &Network{
		members:  make(map[protocol.NodeID]*MemTransport),
		isolated: make(map[protocol.NodeID]bool),
	}
}

// Join creates the transport of a node. Joining an id twice returns the
// existing transport.
func (n *Network) Join(id protocol.NodeID) *MemTransport {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.members[id]; ok {
		return t
	}
	t := &MemTransport{id: id, network: n}
	n.members[id] = t
	n.order = append(n.order, id)
	return t
}

// SetDropFunc installs a loss rule. Pass nil to stop dropping.
func (n *Network) SetDropFunc(f DropFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drop = f
}

// SetDuplicate makes every delivery arrive twice.
func (n *Network) SetDuplicate(on bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dup = on
}

// Isolate cuts a node off: it neither sends nor receives until healed.
// Messages already queued for it are discarded.
func (n *Network) Isolate(id protocol.NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.isolated[id] = true

	kept := n.queue[:0]
	for _, d := range n.queue {
		if d.to == id || d.from == id {
			n.dropped++
			continue
		}
		kept = append(kept, d)
	}
	n.queue = kept
}

// Heal reconnects an isolated node.
func (n *Network) Heal(id protocol.NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.isolated, id)
}

// InjectRaw queues an arbitrary payload for a node, as if it had arrived
// from the wire.
func (n *Network) InjectRaw(to protocol.NodeID, data []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = append(n.queue, delivery{to: to, data: append([]byte(nil), data...)})
}

// Pending returns the number of queued deliveries.
func (n *Network) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}

// Dropped returns the number of deliveries lost to drop rules, isolation or
// decoding failures.
func (n *Network) Dropped() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

// Sent returns every message multicast so far, in send order.
func (n *Network) Sent() []*protocol.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*protocol.Message(nil), n.sent...)
}

// SentKind returns the multicast messages of one kind.
func (n *Network) SentKind(kind protocol.Kind) []*protocol.Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []*protocol.Message
	for _, m := range n.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// ClearSent forgets the send history.
func (n *Network) ClearSent() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

// Step delivers the oldest queued message. It returns false when the queue
// is empty.
func (n *Network) Step() bool {
	n.mu.Lock()
	if len(n.queue) == 0 {
		n.mu.Unlock()
		return false
	}
	d := n.queue[0]
	n.queue = n.queue[1:]
	target := n.members[d.to]
	isolated := n.isolated[d.to]
	n.mu.Unlock()

	if target == nil || isolated {
		n.countDrop()
		return true
	}

	msg, err := protocol.Decode(d.data)
	if err != nil {
		n.countDrop()
		return true
	}

	target.deliver(msg)
	return true
}

// Flush delivers queued messages, including those sent by handlers while
// flushing, until the queue is empty. It returns the number of deliveries
// processed.
func (n *Network) Flush() int {
	count := 0
	for n.Step() {
		count++
	}
	return count
}

func (n *Network) countDrop() {
	n.mu.Lock()
	n.dropped++
	n.mu.Unlock()
}

func (n *Network) multicast(from protocol.NodeID, msg *protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	// Keep a decoded copy so later mutation by the sender cannot leak in.
	copyMsg, err := protocol.Decode(data)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, copyMsg)
	if n.isolated[from] {
		n.dropped += len(n.order) - 1
		return nil
	}

	for _, to := range n.order {
		if to == from {
			continue
		}
		if n.isolated[to] || (n.drop != nil && n.drop(from, to, copyMsg)) {
			n.dropped++
			continue
		}
		n.queue = append(n.queue, delivery{from: from, to: to, data: data})
		if n.dup {
			n.queue = append(n.queue, delivery{from: from, to: to, data: data})
		}
	}
	return nil
}

// MemTransport is a node's endpoint on a Network.
type MemTransport struct {
	id      protocol.NodeID
	network *Network
	handler Handler
	closed  bool
	mu      sync.RWMutex
}

// Multicast queues msg for every other member of the network.
func (t *MemTransport) Multicast(msg *protocol.Message) error {
	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()

	if closed {
		return ErrTransportClosed
	}
	return t.network.multicast(t.id, msg)
}

// Listen installs the handler.
func (t *MemTransport) Listen(handler Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	t.handler = handler
	return nil
}

// Close shuts down the transport. Queued messages for it are discarded on
// delivery.
func (t *MemTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.handler = nil
	return nil
}

// LocalAddr returns the local address.
func (t *MemTransport) LocalAddr() string {
	return "mem://" + string(t.id)
}

func (t *MemTransport) deliver(msg *protocol.Message) {
	t.mu.RLock()
	handler := t.handler
	closed := t.closed
	t.mu.RUnlock()

	if closed || handler == nil {
		t.network.countDrop()
		return
	}
	handler(msg)
}
