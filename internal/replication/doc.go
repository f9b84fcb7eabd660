// Package replication implements the replicated operation log of a node:
// leader election, sequencing and in-order delivery.
//
// # Election
//
// Election is a bully round followed by a quorum vote. A node starting an
// election broadcasts ELECTION for the next epoch. Nodes that outrank the
// sender reply OK and contest with their own round. A candidate that hears
// no OK before its election timer fires asks every active node for its log
// position with VOTE_REQUEST. Once a quorum has answered, the candidate
// pulls any entries it is missing from the most advanced voter (the donor)
// and then announces itself with LEADER_ANNOUNCE.
//
// # Sequencing
//
// The leader assigns every proposed operation the next sequence number and
// multicasts ASSIGN_OP. Assignments are not acknowledged; a follower that
// sees a sequence number ahead of its cursor requests the gap with
// RESEND_REQUEST. Operations are applied strictly in sequence order, each
// operation id at most once.
//
// # Epochs
//
// Every message except PING and ACK carries the sender's epoch. Messages
// from an older epoch are ignored, except that stale election traffic makes
// a node stand down and restart its own election after a random delay.
// Messages from a newer epoch make the node adopt that epoch and revert to
// follower.
//
// A StateMachine is not safe for concurrent use. It must be driven from a
// single goroutine, together with the timers of its Clock.
package replication
