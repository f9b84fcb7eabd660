// Package reliability turns lossy group multicast into acknowledged,
// deduplicated delivery and tracks which nodes are alive.
//
// Every reliable message is tracked until each peer that was active when it
// was sent has acknowledged it, or has been declared dead. Receivers
// acknowledge every copy they see and deliver a message to the protocol layer
// once, when their own view of the acknowledgements is complete.
//
// Liveness comes from heartbeats. A node silent for longer than the liveness
// timeout is demoted from the active set; hearing from it again promotes it
// back. Net changes of the active set are reported to the Receiver as a
// ViewChange.
//
// A Layer is not safe for concurrent use. All methods, and all timer
// callbacks created through its Clock, must run on one goroutine.
package reliability
