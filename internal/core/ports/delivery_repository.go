package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/delivery"

	"github.com/google/uuid"
)

// DeliveryRepository defines the persistence contract for delivery records as
// the background jobs consume them: counting, overdue/archivable selection,
// note updates, and reminder bookkeeping.
type DeliveryRepository interface {
	// Count returns the total number of delivery records.
	Count(ctx context.Context) (int64, error)

	// CountByStatus returns delivery counts grouped by lifecycle status.
	CountByStatus(ctx context.Context) (map[delivery.Status]int64, error)

	// FindOverdue retrieves deliveries in transit whose estimate lies
	// before asOf.
	FindOverdue(ctx context.Context, asOf time.Time) ([]*delivery.Delivery, error)

	// Update persists changes to an existing delivery (notes, flags).
	Update(ctx context.Context, aggregate *delivery.Delivery) error

	// FindArchivable retrieves Delivered/Cancelled deliveries last
	// modified before the cutoff.
	FindArchivable(ctx context.Context, cutoff time.Time) ([]*delivery.Delivery, error)

	// DeleteByIDs removes exactly the given records and reports how many
	// rows were deleted. Deletion is by identifier, never by re-evaluated
	// filter, so records that became eligible after selection are untouched.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// FindDueForReminder retrieves in-transit deliveries whose estimate
	// falls within (from, until] and that have not been reminded yet.
	FindDueForReminder(ctx context.Context, from, until time.Time) ([]*delivery.Delivery, error)

	// MarkReminderSent flips the reminder flag in a single conditional
	// update. Returns false when the flag was already set, which is the
	// idempotency guard against duplicate reminders.
	MarkReminderSent(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}
