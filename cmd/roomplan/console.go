package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chriku/roomplan/internal/booking"
	"github.com/chriku/roomplan/internal/node"
	"github.com/chriku/roomplan/internal/protocol"
	"github.com/chriku/roomplan/internal/replication"
)

// bookingNode is the part of a node the console drives.
type bookingNode interface {
	BookSlot(ctx context.Context, slot int, room, user string) (string, replication.ProposeResult, error)
	Cancel(ctx context.Context, bookingID string) (string, replication.ProposeResult, error)
	Status(ctx context.Context) (node.Status, error)
	Nodes(ctx context.Context) ([]node.NodeInfo, error)
	Log(ctx context.Context) ([]protocol.LogEntry, error)
	Directory() *booking.Directory
	SlotDate() time.Time
}

// console reads booking commands line by line.
type console struct {
	node    bookingNode
	out     io.Writer
	timeout time.Duration
}

func newConsole(n bookingNode, out io.Writer) *console {
	return &console{node: n, out: out, timeout: 5 * time.Second}
}

// run executes commands from in until quit, end of input or ctx is done.
func (c *console) run(ctx context.Context, in io.Reader) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !c.execute(ctx, line) {
				return
			}
			c.prompt()
		}
	}
}

func (c *console) prompt() {
	fmt.Fprint(c.out, "→ ")
}

// execute runs one command line. It returns false when the console should
// exit.
func (c *console) execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var err error
	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "book":
		err = c.book(ctx, args)
	case "cancel":
		err = c.cancel(ctx, args)
	case "list":
		err = c.list(args)
	case "free":
		err = c.free(args)
	case "rooms":
		c.rooms()
	case "users":
		c.users()
	case "status":
		err = c.status(ctx)
	case "nodes":
		err = c.nodes(ctx)
	case "log":
		err = c.log(ctx)
	case "help", "?":
		printConsoleHelp(c.out)
	case "quit", "exit":
		return false
	default:
		err = fmt.Errorf("unknown command %q, type 'help'", cmd)
	}

	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
	return true
}

func (c *console) book(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: book <slot> <room> <user>")
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid slot %q", args[0])
	}

	id, result, err := c.node.BookSlot(ctx, slot, args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Booking %s proposed (%s)\n", id, result)
	return nil
}

func (c *console) cancel(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cancel <bookingId>")
	}
	id, result, err := c.node.Cancel(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Cancellation %s proposed (%s)\n", id, result)
	return nil
}

func (c *console) list(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: list <room>")
	}
	bookings, err := c.node.Directory().Bookings(args[0])
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		fmt.Fprintf(c.out, "No bookings for %s\n", args[0])
		return nil
	}
	for _, b := range bookings {
		fmt.Fprintf(c.out, "  Booking %s: %s by %s [%s]\n", b.ID, b.Time, b.User, b.Status)
	}
	return nil
}

func (c *console) free(args []string) error {
	at := time.Now()
	if len(args) == 1 {
		slot, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid slot %q", args[0])
		}
		r, err := booking.SlotRange(c.node.SlotDate(), slot)
		if err != nil {
			return err
		}
		at = r.Start
	}

	rooms := c.node.Directory().FreeRooms(at)
	if len(rooms) == 0 {
		fmt.Fprintln(c.out, "No free rooms")
		return nil
	}
	for _, r := range rooms {
		fmt.Fprintf(c.out, "  %s (capacity %d)\n", r.Name, r.Capacity)
	}
	return nil
}

func (c *console) rooms() {
	for _, r := range c.node.Directory().ListRooms() {
		fmt.Fprintf(c.out, "  %s (capacity %d, %d bookings)\n", r.Name, r.Capacity, len(r.Bookings))
	}
}

func (c *console) users() {
	for _, u := range c.node.Directory().ListUsers() {
		fmt.Fprintf(c.out, "  %s\n", u.Name)
	}
}

func (c *console) status(ctx context.Context) error {
	s, err := c.node.Status(ctx)
	if err != nil {
		return err
	}
	leader := string(s.LeaderID)
	if leader == "" {
		leader = "(none)"
	}
	fmt.Fprintf(c.out, "Node:           %s (%s)\n", s.Self, s.Nickname)
	fmt.Fprintf(c.out, "Mode:           %s\n", s.Mode)
	fmt.Fprintf(c.out, "Epoch:          %d\n", s.Epoch)
	fmt.Fprintf(c.out, "Leader:         %s\n", leader)
	fmt.Fprintf(c.out, "Last delivered: %d\n", s.LastDelivered)
	fmt.Fprintf(c.out, "Queued:         %d\n", s.Queued)
	fmt.Fprintf(c.out, "In flight:      %d\n", s.InFlight)
	fmt.Fprintf(c.out, "Active nodes:   %d\n", len(s.Active))
	return nil
}

func (c *console) nodes(ctx context.Context) error {
	infos, err := c.node.Nodes(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		var tags []string
		if info.Self {
			tags = append(tags, "self")
		}
		if info.Leader {
			tags = append(tags, "leader")
		}
		if !info.Active {
			tags = append(tags, "inactive")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Fprintf(c.out, "  %s%s\n", info.ID, suffix)
	}
	return nil
}

func (c *console) log(ctx context.Context) error {
	entries, err := c.node.Log(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "Log is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "  %4d %-11s %s (from %s)\n", e.Seq, e.Op.Kind, e.Op.ID, e.Op.CausedBy)
	}
	return nil
}
