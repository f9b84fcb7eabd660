package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"golang.org/x/net/ipv4"

	"github.com/chriku/roomplan/internal/logging"
	"github.com/chriku/roomplan/internal/protocol"
)

// UDPConfig holds the multicast group settings of a UDPTransport.
type UDPConfig struct {
	// Self is the local node. Datagrams from Self looped back by the kernel
	// are discarded.
	Self protocol.NodeID

	Address   string
	Port      int
	Interface string
	TTL       int
	Loopback  bool
}

// UDPTransport implements Transport over IPv4 UDP multicast.
type UDPTransport struct {
	cfg    UDPConfig
	group  *net.UDPAddr
	ifi    *net.Interface
	conn   net.PacketConn
	pconn  *ipv4.PacketConn
	logger logging.Logger

	handler Handler
	closed  bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// NewUDPTransport creates a transport for the group described by cfg. The
// socket is opened by Listen.
func NewUDPTransport(cfg UDPConfig, logger logging.Logger) (*UDPTransport, error) {
	ip := net.ParseIP(cfg.Address)
	if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroup, cfg.Address)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	t := &UDPTransport{
		cfg:    cfg,
		group:  &net.UDPAddr{IP: ip.To4(), Port: cfg.Port},
		logger: logger.WithComponent("transport"),
	}

	if cfg.Interface != "" {
		ifi, err := net.InterfaceByName(cfg.Interface)
		if err != nil {
			return nil, fmt.Errorf("transport: interface %s: %w", cfg.Interface, err)
		}
		t.ifi = ifi
	}

	return t, nil
}

// LocalAddr returns the local socket address, or the group address before
// Listen.
func (t *UDPTransport) LocalAddr() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.group.String()
}

// Listen binds the group port, joins the group and starts the receive
// goroutine.
func (t *UDPTransport) Listen(handler Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}
	if t.conn != nil {
		return ErrAlreadyListening
	}

	lc := net.ListenConfig{Control: reuseAddrControl}
	conn, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(t.cfg.Port)))
	if err != nil {
		return fmt.Errorf("transport: listen: %w", err)
	}

	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.JoinGroup(t.ifi, &net.UDPAddr{IP: t.group.IP}); err != nil {
		conn.Close()
		return fmt.Errorf("transport: join group %s: %w", t.group.IP, err)
	}
	if t.ifi != nil {
		if err := pconn.SetMulticastInterface(t.ifi); err != nil {
			conn.Close()
			return fmt.Errorf("transport: multicast interface: %w", err)
		}
	}
	if err := pconn.SetMulticastTTL(t.cfg.TTL); err != nil {
		conn.Close()
		return fmt.Errorf("transport: multicast ttl: %w", err)
	}
	if err := pconn.SetMulticastLoopback(t.cfg.Loopback); err != nil {
		conn.Close()
		return fmt.Errorf("transport: multicast loopback: %w", err)
	}

	t.conn = conn
	t.pconn = pconn
	t.handler = handler

	t.logger.Info("joined multicast group",
		"group", t.group.String(),
		"local", conn.LocalAddr().String(),
		"ttl", t.cfg.TTL,
		"loopback", t.cfg.Loopback,
	)

	t.wg.Add(1)
	go t.receiveLoop(pconn, handler)

	return nil
}

func (t *UDPTransport) receiveLoop(pconn *ipv4.PacketConn, handler Handler) {
	defer t.wg.Done()

	buf := make([]byte, protocol.MaxMessageSize)
	for {
		n, _, src, err := pconn.ReadFrom(buf)
		if err != nil {
			t.mu.RLock()
			closed := t.closed
			t.mu.RUnlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn("receive failed", "error", err)
			continue
		}

		msg, err := protocol.Decode(buf[:n])
		if err != nil {
			t.logger.Debug("dropping malformed datagram", "source", addrString(src), "bytes", n, "error", err)
			continue
		}
		if msg.From == t.cfg.Self {
			continue
		}

		if handler != nil {
			handler(msg)
		}
	}
}

// Multicast sends msg to the group. Send failures are logged and returned;
// the reliability layer retries.
func (t *UDPTransport) Multicast(msg *protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	t.mu.RLock()
	closed := t.closed
	pconn := t.pconn
	t.mu.RUnlock()

	if closed {
		return ErrTransportClosed
	}
	if pconn == nil {
		return ErrNotListening
	}

	if _, err := pconn.WriteTo(data, nil, t.group); err != nil {
		t.logger.Warn("multicast failed", "kind", msg.Kind, "id", msg.ID, "error", err)
		return fmt.Errorf("transport: send %s: %w", msg.Kind, err)
	}
	return nil
}

// Close leaves the group, closes the socket and waits for the receive
// goroutine.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	pconn := t.pconn
	t.mu.Unlock()

	var err error
	if pconn != nil {
		_ = pconn.LeaveGroup(t.ifi, &net.UDPAddr{IP: t.group.IP})
	}
	if conn != nil {
		err = conn.Close()
	}

	t.wg.Wait()
	return err
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
