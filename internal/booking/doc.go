// Package booking implements the replicated room booking model.
//
// A Directory holds the rooms and users a cluster shares and the bookings
// made so far. It is the Applier of the replication state machine: every
// node applies the same operations in the same order, so every Directory
// reaches the same state. Booking ids are the ids of the operations that
// created them.
//
// Conflicting or invalid operations are not errors at apply time. They are
// logged and recorded as rejections; the sequence slot is consumed either
// way.
//
// Clients build operations with NewBookOperation and NewCancelOperation and
// may pre-check them with CheckBooking and CheckCancel before proposing.
package booking
