package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chriku/roomplan/internal/config"
	"github.com/chriku/roomplan/internal/logging"
	"github.com/chriku/roomplan/internal/node"
	"github.com/chriku/roomplan/internal/replication"
	"github.com/chriku/roomplan/internal/transport"
)

// newSoloNode starts a single node on an in-memory network and waits until
// it leads.
func newSoloNode(t *testing.T) *node.Node {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Node.ID = "solo"
	cfg.Election.DiscoveryTimeout = 50 * time.Millisecond
	cfg.Election.ElectionTimeout = 50 * time.Millisecond
	cfg.Election.VoteTimeout = 50 * time.Millisecond
	cfg.Booking.Users = []string{"alice", "bob"}
	cfg.Booking.Rooms = []config.RoomConfig{{Name: "R1", Capacity: 4}, {Name: "R2", Capacity: 8}}

	n, err := node.New(cfg, node.Options{
		Transport: transport.NewNetwork().Join("solo"),
		Logger:    logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("node.New failed: %v", err)
	}
	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = n.Stop() })

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s, err := n.Status(context.Background())
		if err == nil && s.Mode == replication.Leader.String() {
			return n
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("node did not become leader")
	return nil
}

func TestConsoleCommands(t *testing.T) {
	n := newSoloNode(t)
	var out bytes.Buffer
	c := newConsole(n, &out)
	ctx := context.Background()

	exec := func(line string) string {
		out.Reset()
		if !c.execute(ctx, line) {
			t.Fatalf("%q ended the console", line)
		}
		return out.String()
	}

	got := exec("book 10 R1 alice")
	if !strings.Contains(got, "proposed ("+string(replication.ProposedAsLeader)+")") {
		t.Fatalf("book output = %q", got)
	}
	id := strings.Fields(got)[1]

	if got := exec("book 10 R1 bob"); !strings.Contains(got, "already booked") {
		t.Errorf("conflicting book output = %q", got)
	}
	if got := exec("list R1"); !strings.Contains(got, id) || !strings.Contains(got, "alice") {
		t.Errorf("list output = %q", got)
	}
	if got := exec("free 10"); strings.Contains(got, "R1") || !strings.Contains(got, "R2") {
		t.Errorf("free output = %q", got)
	}
	if got := exec("status"); !strings.Contains(got, "LEADER") || !strings.Contains(got, "Last delivered: 1") {
		t.Errorf("status output = %q", got)
	}
	if got := exec("nodes"); !strings.Contains(got, "solo [self, leader]") {
		t.Errorf("nodes output = %q", got)
	}
	if got := exec("log"); !strings.Contains(got, id) {
		t.Errorf("log output = %q", got)
	}
	if got := exec("cancel " + id); !strings.Contains(got, "Cancellation") {
		t.Errorf("cancel output = %q", got)
	}
	if got := exec("list R1"); !strings.Contains(got, "CANCELLED") {
		t.Errorf("list after cancel = %q", got)
	}
	if got := exec("rooms"); !strings.Contains(got, "R1 (capacity 4, 1 bookings)") {
		t.Errorf("rooms output = %q", got)
	}
	if got := exec("users"); !strings.Contains(got, "alice") || !strings.Contains(got, "bob") {
		t.Errorf("users output = %q", got)
	}
}

func TestConsoleErrors(t *testing.T) {
	n := newSoloNode(t)
	var out bytes.Buffer
	c := newConsole(n, &out)

	tests := []struct {
		line string
		want string
	}{
		{"book", "usage: book"},
		{"book x R1 alice", "invalid slot"},
		{"book 99 R1 alice", "invalid slot"},
		{"book 10 R9 alice", "unknown room"},
		{"book 10 R1 mallory", "unknown user"},
		{"cancel", "usage: cancel"},
		{"cancel nope", "unknown booking"},
		{"list", "usage: list"},
		{"list R9", "unknown room"},
		{"free x", "invalid slot"},
		{"dance", "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out.Reset()
			c.execute(context.Background(), tt.line)
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestConsoleRun(t *testing.T) {
	n := newSoloNode(t)
	var out bytes.Buffer
	c := newConsole(n, &out)

	in := strings.NewReader("help\n\nrooms\nquit\nstatus\n")
	c.run(context.Background(), in)

	got := out.String()
	if !strings.Contains(got, "Commands:") || !strings.Contains(got, "R2") {
		t.Errorf("output = %q", got)
	}
	if strings.Contains(got, "Mode:") {
		t.Error("console kept reading after quit")
	}
}
