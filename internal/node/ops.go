package node

import (
	"context"
	"sort"

	"github.com/chriku/roomplan/internal/booking"
	"github.com/chriku/roomplan/internal/protocol"
	"github.com/chriku/roomplan/internal/replication"
)

// Propose submits an operation for sequencing. On error the operation was
// not submitted.
func (n *Node) Propose(ctx context.Context, op *protocol.Operation) (replication.ProposeResult, error) {
	var result replication.ProposeResult
	err := n.do(ctx, func() {
		result = n.machine.ProposeOperation(op)
	})
	if err != nil {
		return "", err
	}
	n.logger.Debug("operation proposed", "op", op.ID, "kind", op.Kind, "result", result)
	return result, nil
}

// Book proposes a booking of room for user. The booking is checked against
// the local state first; its id is the returned operation id.
func (n *Node) Book(ctx context.Context, room, user string, r booking.DateRange) (string, replication.ProposeResult, error) {
	p := booking.BookPayload{Room: room, User: user, Start: r.Start, End: r.End}
	if err := n.directory.CheckBooking(p); err != nil {
		return "", "", err
	}

	op, err := booking.NewBookOperation(room, user, r)
	if err != nil {
		return "", "", err
	}
	result, err := n.Propose(ctx, op)
	if err != nil {
		return "", "", err
	}
	return op.ID, result, nil
}

// BookSlot books the hour slot of the configured day.
func (n *Node) BookSlot(ctx context.Context, slot int, room, user string) (string, replication.ProposeResult, error) {
	r, err := booking.SlotRange(n.slotDate, slot)
	if err != nil {
		return "", "", err
	}
	return n.Book(ctx, room, user, r)
}

// Cancel proposes the cancellation of a booking.
func (n *Node) Cancel(ctx context.Context, bookingID string) (string, replication.ProposeResult, error) {
	if err := n.directory.CheckCancel(booking.CancelPayload{BookingID: bookingID}); err != nil {
		return "", "", err
	}

	op, err := booking.NewCancelOperation(bookingID)
	if err != nil {
		return "", "", err
	}
	result, err := n.Propose(ctx, op)
	if err != nil {
		return "", "", err
	}
	return op.ID, result, nil
}

// Status describes a node for display.
type Status struct {
	replication.Status
	Nickname string            `json:"nickname"`
	Active   []protocol.NodeID `json:"active"`
}

// Status returns the replication state and the active set.
func (n *Node) Status(ctx context.Context) (Status, error) {
	var s Status
	err := n.do(ctx, func() {
		s.Status = n.machine.Snapshot()
		s.Active = n.layer.ActiveNodes()
	})
	s.Nickname = n.nickname
	return s, err
}

// NodeInfo describes a peer known to the failure detector.
type NodeInfo struct {
	ID     protocol.NodeID `json:"id"`
	Active bool            `json:"active"`
	Leader bool            `json:"leader"`
	Self   bool            `json:"self"`
}

// Nodes returns every known node, the local node included.
func (n *Node) Nodes(ctx context.Context) ([]NodeInfo, error) {
	var out []NodeInfo
	err := n.do(ctx, func() {
		leader := n.machine.LeaderID()
		seen := map[protocol.NodeID]bool{n.id: true}
		out = append(out, NodeInfo{ID: n.id, Active: true, Leader: leader == n.id, Self: true})
		for _, id := range n.layer.KnownNodes() {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, NodeInfo{ID: id, Active: n.layer.IsActive(id), Leader: leader == id})
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// Log returns the delivered operations in sequence order.
func (n *Node) Log(ctx context.Context) ([]protocol.LogEntry, error) {
	var entries []protocol.LogEntry
	err := n.do(ctx, func() {
		entries = n.machine.Log()
	})
	return entries, err
}
