package transport

import (
	"errors"
	"testing"

	"github.com/chriku/roomplan/internal/protocol"
)

func newTestPing(from protocol.NodeID) *protocol.Message {
	return protocol.NewPing(from)
}

func collect(tr *MemTransport) *[]*protocol.Message {
	var got []*protocol.Message
	tr.Listen(func(msg *protocol.Message) {
		got = append(got, msg)
	})
	return &got
}

func TestNetworkMulticast(t *testing.T) {
	network := NewNetwork()
	a := network.Join("a")
	b := network.Join("b")
	c := network.Join("c")

	gotA := collect(a)
	gotB := collect(b)
	gotC := collect(c)

	msg := newTestPing("a")
	if err := a.Multicast(msg); err != nil {
		t.Fatalf("Multicast failed: %v", err)
	}

	// Nothing is delivered until the test pumps the queue.
	if len(*gotB) != 0 {
		t.Fatal("delivery happened before Flush")
	}
	if network.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", network.Pending())
	}

	if n := network.Flush(); n != 2 {
		t.Errorf("Flush() = %d, want 2", n)
	}

	if len(*gotA) != 0 {
		t.Errorf("sender received its own message")
	}
	for name, got := range map[string]*[]*protocol.Message{"b": gotB, "c": gotC} {
		if len(*got) != 1 {
			t.Fatalf("%s received %d messages, want 1", name, len(*got))
		}
		if (*got)[0].ID != msg.ID || (*got)[0].From != "a" {
			t.Errorf("%s received %+v", name, (*got)[0])
		}
	}
}

func TestNetworkDeliversDecodedCopy(t *testing.T) {
	network := NewNetwork()
	a := network.Join("a")
	b := network.Join("b")
	gotB := collect(b)

	msg := protocol.NewMessage(protocol.KindElection, "a", protocol.Epoch(3))
	a.Multicast(msg)
	msg.From = "mutated"
	network.Flush()

	if len(*gotB) != 1 {
		t.Fatalf("received %d messages, want 1", len(*gotB))
	}
	if (*gotB)[0] == msg {
		t.Error("receiver got the sender's pointer")
	}
	if (*gotB)[0].From != "a" || (*gotB)[0].EpochValue() != 3 {
		t.Errorf("received %+v", (*gotB)[0])
	}
}

func TestNetworkDropFunc(t *testing.T) {
	network := NewNetwork()
	a := network.Join("a")
	b := network.Join("b")
	c := network.Join("c")
	gotB := collect(b)
	gotC := collect(c)

	network.SetDropFunc(func(from, to protocol.NodeID, msg *protocol.Message) bool {
		return to == "c"
	})
	a.Multicast(newTestPing("a"))
	network.Flush()

	if len(*gotB) != 1 {
		t.Errorf("b received %d, want 1", len(*gotB))
	}
	if len(*gotC) != 0 {
		t.Errorf("c received %d, want 0", len(*gotC))
	}
	if network.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", network.Dropped())
	}

	network.SetDropFunc(nil)
	a.Multicast(newTestPing("a"))
	network.Flush()
	if len(*gotC) != 1 {
		t.Errorf("c received %d after clearing drop rule, want 1", len(*gotC))
	}
}

func TestNetworkIsolateHeal(t *testing.T) {
	network := NewNetwork()
	a := network.Join("a")
	b := network.Join("b")
	gotA := collect(a)
	gotB := collect(b)

	a.Multicast(newTestPing("a"))
	network.Isolate("b")

	// The queued copy for b is discarded.
	if network.Pending() != 0 {
		t.Errorf("Pending() = %d after isolate, want 0", network.Pending())
	}

	b.Multicast(newTestPing("b"))
	a.Multicast(newTestPing("a"))
	network.Flush()
	if len(*gotA) != 0 || len(*gotB) != 0 {
		t.Errorf("isolated node exchanged messages: a=%d b=%d", len(*gotA), len(*gotB))
	}

	network.Heal("b")
	b.Multicast(newTestPing("b"))
	network.Flush()
	if len(*gotA) != 1 {
		t.Errorf("a received %d after heal, want 1", len(*gotA))
	}
}

func TestNetworkDuplicate(t *testing.T) {
	network := NewNetwork()
	a := network.Join("a")
	b := network.Join("b")
	gotB := collect(b)

	network.SetDuplicate(true)
	a.Multicast(newTestPing("a"))
	network.Flush()

	if len(*gotB) != 2 {
		t.Fatalf("received %d, want 2", len(*gotB))
	}
	if (*gotB)[0].ID != (*gotB)[1].ID {
		t.Error("duplicates carry different ids")
	}
}

func TestNetworkDropsMalformed(t *testing.T) {
	network := NewNetwork()
	network.Join("a")
	b := network.Join("b")
	gotB := collect(b)

	network.InjectRaw("b", []byte("{not json"))
	network.InjectRaw("b", []byte(`{"id":"x","kind":"BOGUS","from":"a"}`))
	network.Flush()

	if len(*gotB) != 0 {
		t.Errorf("malformed payload reached handler: %+v", *gotB)
	}
	if network.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", network.Dropped())
	}
}

func TestNetworkSentHistory(t *testing.T) {
	network := NewNetwork()
	a := network.Join("a")
	network.Join("b")

	a.Multicast(newTestPing("a"))
	a.Multicast(protocol.NewMessage(protocol.KindCatchUp, "a", protocol.Epoch(0)))

	if len(network.Sent()) != 2 {
		t.Errorf("Sent() has %d messages, want 2", len(network.Sent()))
	}
	if got := network.SentKind(protocol.KindCatchUp); len(got) != 1 {
		t.Errorf("SentKind(CATCH_UP) = %d, want 1", len(got))
	}

	network.ClearSent()
	if len(network.Sent()) != 0 {
		t.Error("ClearSent did not clear history")
	}
}

func TestMemTransportClose(t *testing.T) {
	network := NewNetwork()
	a := network.Join("a")
	b := network.Join("b")
	gotB := collect(b)

	a.Multicast(newTestPing("a"))
	b.Close()
	network.Flush()

	if len(*gotB) != 0 {
		t.Error("closed transport received a message")
	}
	if err := b.Multicast(newTestPing("b")); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Multicast after Close = %v, want ErrTransportClosed", err)
	}
	if err := b.Listen(nil); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Listen after Close = %v, want ErrTransportClosed", err)
	}
}

func TestMemTransportRejectsInvalid(t *testing.T) {
	network := NewNetwork()
	a := network.Join("a")

	// An election message without an epoch fails validation.
	msg := protocol.NewMessage(protocol.KindElection, "a", nil)
	if err := a.Multicast(msg); err == nil {
		t.Error("expected validation error")
	}
}

func TestMemTransportLocalAddr(t *testing.T) {
	network := NewNetwork()
	transport := network.Join("node-1")
	if transport.LocalAddr() != "mem://node-1" {
		t.Errorf("LocalAddr mismatch: %s", transport.LocalAddr())
	}
	if network.Join("node-1") != transport {
		t.Error("joining twice returned a new transport")
	}
}
