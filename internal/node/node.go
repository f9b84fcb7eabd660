package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chriku/roomplan/internal/booking"
	"github.com/chriku/roomplan/internal/config"
	"github.com/chriku/roomplan/internal/logging"
	"github.com/chriku/roomplan/internal/protocol"
	"github.com/chriku/roomplan/internal/reliability"
	"github.com/chriku/roomplan/internal/replication"
	"github.com/chriku/roomplan/internal/sched"
	"github.com/chriku/roomplan/internal/transport"
)

// Options customizes a node.
type Options struct {
	// Transport replaces the UDP multicast transport built from the
	// configuration.
	Transport transport.Transport

	// Logger replaces the logger built from the configuration.
	Logger logging.Logger

	// LoopBuffer is the event queue size of the loop.
	LoopBuffer int
}

// Node is one member of a roomplan cluster.
type Node struct {
	id        protocol.NodeID
	nickname  string
	slotDate  time.Time
	logger    logging.Logger
	loop      *sched.Loop
	transport transport.Transport
	layer     *reliability.Layer
	machine   *replication.StateMachine
	directory *booking.Directory

	running bool
	stopped bool
	mu      sync.Mutex
}

// New builds a node from cfg. The node does not touch the network until
// Start.
func New(cfg *config.Config, opts Options) (*Node, error) {
	if cfg == nil {
		return nil, ErrNoConfig
	}
	config.ResolveNodeID(cfg)

	slotDate, err := config.ParseSlotDate(cfg.Booking.SlotDate)
	if err != nil {
		return nil, fmt.Errorf("booking.slotDate: %w", err)
	}

	id := protocol.NodeID(cfg.Node.ID)
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		})
	}
	logger = logger.WithNode(cfg.Node.Nickname)

	tr := opts.Transport
	if tr == nil {
		udp, err := transport.NewUDPTransport(transport.UDPConfig{
			Self:      id,
			Address:   cfg.Multicast.Address,
			Port:      cfg.Multicast.Port,
			Interface: cfg.Multicast.Interface,
			TTL:       cfg.Multicast.TTL,
			Loopback:  cfg.Multicast.Loopback,
		}, logger)
		if err != nil {
			return nil, err
		}
		tr = udp
	}

	rooms := make([]booking.RoomSpec, 0, len(cfg.Booking.Rooms))
	for _, r := range cfg.Booking.Rooms {
		rooms = append(rooms, booking.RoomSpec{Name: r.Name, Capacity: r.Capacity})
	}
	directory := booking.NewDirectory(rooms, cfg.Booking.Users, logger)

	loop := sched.NewLoop(opts.LoopBuffer)
	layer := reliability.NewLayer(ReliabilityConfig(cfg, id), loop, tr, logger)
	machine := replication.New(ReplicationConfig(cfg, id), loop, layer, directory, logger)
	layer.SetReceiver(machine)

	return &Node{
		id:        id,
		nickname:  cfg.Node.Nickname,
		slotDate:  slotDate,
		logger:    logger.WithComponent("node"),
		loop:      loop,
		transport: tr,
		layer:     layer,
		machine:   machine,
		directory: directory,
	}, nil
}

// ReliabilityConfig returns the reliability layer timing of cfg.
func ReliabilityConfig(cfg *config.Config, id protocol.NodeID) reliability.Config {
	return reliability.Config{
		Self:              id,
		RetryInterval:     cfg.Reliability.RetryInterval,
		HeartbeatInterval: cfg.Reliability.HeartbeatInterval,
		SweepInterval:     cfg.Reliability.SweepInterval,
		LivenessTimeout:   cfg.Reliability.LivenessTimeout,
		DedupWindow:       cfg.Reliability.DedupWindow,
	}
}

// ReplicationConfig returns the election timing of cfg.
func ReplicationConfig(cfg *config.Config, id protocol.NodeID) replication.Config {
	return replication.Config{
		Self:             id,
		ElectionTimeout:  cfg.Election.ElectionTimeout,
		VoteTimeout:      cfg.Election.VoteTimeout,
		DiscoveryTimeout: cfg.Election.DiscoveryTimeout,
		StandDownMin:     cfg.Election.StandDownMin,
		StandDownMax:     cfg.Election.StandDownMax,
	}
}

// Start joins the group and starts the protocol.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return ErrAlreadyStarted
	}
	if n.stopped {
		return ErrStopped
	}

	n.loop.Start()

	if err := n.transport.Listen(n.receive); err != nil {
		n.loop.Stop()
		return fmt.Errorf("listen: %w", err)
	}

	var startErr error
	err := n.loop.Do(ctx, func() {
		if startErr = n.layer.Start(); startErr != nil {
			return
		}
		n.machine.Start()
	})
	if err == nil {
		err = startErr
	}
	if err != nil {
		_ = n.transport.Close()
		n.loop.Stop()
		return err
	}

	n.running = true
	n.logger.Info("node started", "id", n.id, "addr", n.transport.LocalAddr())
	return nil
}

// receive runs on the transport goroutine.
func (n *Node) receive(msg *protocol.Message) {
	if err := n.loop.Post(func() { n.layer.HandleIncoming(msg) }); err != nil {
		n.logger.Debug("dropping message after stop", "kind", msg.Kind, "from", msg.From)
	}
}

// Stop leaves the group. A stopped node cannot be restarted.
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return nil
	}
	n.running = false
	n.stopped = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = n.loop.Do(ctx, func() {
		n.machine.Stop()
		n.layer.Stop()
	})

	err := n.transport.Close()
	n.loop.Stop()
	n.logger.Info("node stopped", "id", n.id)
	return err
}

// Running reports whether the node is started.
func (n *Node) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// ID returns the node id.
func (n *Node) ID() protocol.NodeID {
	return n.id
}

// Nickname returns the display name of the node.
func (n *Node) Nickname() string {
	return n.nickname
}

// Directory returns the booking state of the node.
func (n *Node) Directory() *booking.Directory {
	return n.directory
}

// SlotDate returns the day hour slots refer to.
func (n *Node) SlotDate() time.Time {
	return n.slotDate
}

// do runs f on the loop of a running node.
func (n *Node) do(ctx context.Context, f func()) error {
	if !n.Running() {
		return ErrStopped
	}
	if err := n.loop.Do(ctx, f); err != nil {
		if errors.Is(err, sched.ErrLoopStopped) {
			return ErrStopped
		}
		return err
	}
	return nil
}
