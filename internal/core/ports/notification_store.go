package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/notification"
)

// NotificationStore is the durable queue of pending notification records.
//
// Append and Drain must be atomic with respect to each other: an append that
// races a drain may land before or after it, but is never lost.
type NotificationStore interface {
	// Append adds records to the end of the pending queue.
	Append(ctx context.Context, records ...notification.Record) error

	// Pending returns the queued records without removing them.
	// A store that has never been written reads as empty.
	Pending(ctx context.Context) ([]notification.Record, error)

	// Drain removes and returns the entire pending queue.
	Drain(ctx context.Context) ([]notification.Record, error)

	// Archive moves finished records (dispatched or retry-exhausted) into
	// the dated processed log for the given day.
	Archive(ctx context.Context, day time.Time, records ...notification.Record) error

	// PruneOlderThan drops pending records created before the cutoff and
	// returns how many were removed.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
