// Package transport moves protocol messages between the nodes of a cluster.
//
// A Transport is fire-and-forget group communication: a multicast message
// may be lost, duplicated or reordered, and nothing here retries or
// deduplicates. Reliability is layered on top by package reliability.
//
// Two implementations exist:
//   - UDPTransport joins an IPv4 multicast group and is used in production.
//   - Network and MemTransport form an in-memory group for tests. Deliveries
//     are queued and pumped explicitly with Network.Flush, so handlers never
//     re-enter and tests stay deterministic.
//
// Both encode messages with protocol.Encode on send and decode them with
// protocol.Decode on receipt. Malformed payloads are dropped at this layer
// and never reach the handler.
package transport
