// Package protocol defines the messages nodes exchange over the multicast
// group.
//
// # Envelope
//
// Every message carries the common fields id, kind, from and epoch. The
// epoch is null for liveness-only kinds (PING, ACK). Kind-specific fields
// are flattened into the same JSON object:
//
//	{"id":"5c1e...","kind":"ASSIGN_OP","from":"node-b","epoch":4,
//	 "leaderId":"node-b","seq":12,"op":{...}}
//
// # Kinds
//
// ACK and PING belong to the reliability layer. ASSIGN_OP is multicast
// without acknowledgements and protected by sequence gap detection. All
// other kinds are broadcast reliably and dispatched to a Handler once the
// reliability layer has finalized them.
//
// # Dispatch
//
// Dispatch switches over every protocol kind and calls the matching Handler
// method. Types that process protocol messages assert at compile time that
// they implement Handler:
//
//	var _ protocol.Handler = (*StateMachine)(nil)
package protocol
