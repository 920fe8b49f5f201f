// Package delivery provides the domain entity for tracked shipments in the
// dispatch system. It implements the Delivery aggregate consumed by the
// background jobs.
//
// The package includes:
//   - Delivery: the aggregate that carries status, the delivery estimate,
//     audit notes, and reminder bookkeeping
//   - Status: a state machine over Pending, In Transit, Delivered, Cancelled
//
// Key business rules:
//   - A delivery is overdue when it is In Transit past its estimate; more
//     than 24 hours past the estimate is critical
//   - Audit notes are append-only and timestamped
//   - A reminder may be queued at most once per delivery
//   - Only Delivered and Cancelled deliveries are archivable
package delivery
