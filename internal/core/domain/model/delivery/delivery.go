package delivery

import (
	"errors"
	"fmt"
	"math"
	"time"

	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrDeliveryIsNotConstructed is returned when a Delivery instance was not
// created through the NewDelivery or RestoreDelivery factory methods.
var ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery constructor")

// CriticalOverdueHours is the boundary past which an overdue delivery is
// classified critical instead of merely flagged.
const CriticalOverdueHours = 24

// Delivery represents one tracked shipment. It is the aggregate the
// background jobs read and annotate: the overdue detector appends audit
// notes, the notification processor flips the reminder flag, and the
// archiver removes terminal records after the retention window.
//
// Invariants:
//   - Must have a valid unique identifier and a non-empty order ID
//   - Status is always one of the valid Status values
//   - notes only grow; they are never rewritten
type Delivery struct {
	id                  uuid.UUID
	orderID             string
	status              Status
	estimatedDeliveryAt time.Time
	reminderSent        bool
	notes               []string
	createdAt           time.Time
	updatedAt           time.Time

	isConstructed bool
}

// NewDelivery creates a new Delivery in Pending status with validation.
// This is the only way to create a valid new Delivery.
func NewDelivery(id uuid.UUID, orderID string, estimatedDeliveryAt, now time.Time) (*Delivery, error) {
	if id == uuid.Nil {
		return nil, errs.NewValueIsRequiredError("id")
	}
	if orderID == "" {
		return nil, errs.NewValueIsRequiredError("orderID")
	}
	if estimatedDeliveryAt.IsZero() {
		return nil, errs.NewValueIsRequiredError("estimatedDeliveryAt")
	}

	return &Delivery{
		id:                  id,
		orderID:             orderID,
		status:              Pending,
		estimatedDeliveryAt: estimatedDeliveryAt,
		createdAt:           now,
		updatedAt:           now,
		isConstructed:       true,
	}, nil
}

// RestoreDelivery reconstructs a Delivery from persistence without applying
// creation-time defaults. The status must still be valid.
func RestoreDelivery(
	id uuid.UUID,
	orderID string,
	status Status,
	estimatedDeliveryAt time.Time,
	reminderSent bool,
	notes []string,
	createdAt, updatedAt time.Time,
) (*Delivery, error) {
	if id == uuid.Nil {
		return nil, errs.NewValueIsRequiredError("id")
	}
	if orderID == "" {
		return nil, errs.NewValueIsRequiredError("orderID")
	}
	if err := status.Validate(); err != nil {
		return nil, err
	}

	return &Delivery{
		id:                  id,
		orderID:             orderID,
		status:              status,
		estimatedDeliveryAt: estimatedDeliveryAt,
		reminderSent:        reminderSent,
		notes:               notes,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
		isConstructed:       true,
	}, nil
}

// Validate ensures the Delivery was properly constructed through a factory method.
func (d *Delivery) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDeliveryIsNotConstructed
	}
	return nil
}

// ID returns the delivery's unique identifier.
func (d *Delivery) ID() uuid.UUID {
	return d.id
}

// OrderID returns the business order identifier the delivery belongs to.
func (d *Delivery) OrderID() string {
	return d.orderID
}

// Status returns the delivery's current lifecycle state.
func (d *Delivery) Status() Status {
	return d.status
}

// EstimatedDeliveryAt returns the promised delivery time.
func (d *Delivery) EstimatedDeliveryAt() time.Time {
	return d.estimatedDeliveryAt
}

// ReminderSent reports whether a delivery reminder has already been queued.
func (d *Delivery) ReminderSent() bool {
	return d.reminderSent
}

// Notes returns a copy of the audit notes appended to the delivery.
func (d *Delivery) Notes() []string {
	out := make([]string, len(d.notes))
	copy(out, d.notes)
	return out
}

// CreatedAt returns when the delivery record was created.
func (d *Delivery) CreatedAt() time.Time {
	return d.createdAt
}

// UpdatedAt returns when the delivery record was last modified.
func (d *Delivery) UpdatedAt() time.Time {
	return d.updatedAt
}

// IsOverdue reports whether the delivery is in transit past its estimate.
func (d *Delivery) IsOverdue(now time.Time) bool {
	return d.status == InTransit && d.estimatedDeliveryAt.Before(now)
}

// HoursOverdue returns the number of hours past the estimate, rounded to the
// nearest whole hour. Zero when the delivery is not yet past its estimate.
func (d *Delivery) HoursOverdue(now time.Time) int {
	if !d.estimatedDeliveryAt.Before(now) {
		return 0
	}
	return int(math.Round(now.Sub(d.estimatedDeliveryAt).Hours()))
}

// IsCriticallyOverdue reports whether the delivery is more than
// CriticalOverdueHours past its estimate.
func (d *Delivery) IsCriticallyOverdue(now time.Time) bool {
	return d.IsOverdue(now) && d.HoursOverdue(now) > CriticalOverdueHours
}

// AppendNote adds an audit note and bumps the modification timestamp.
func (d *Delivery) AppendNote(note string, now time.Time) error {
	if note == "" {
		return errs.NewValueIsRequiredError("note")
	}
	d.notes = append(d.notes, fmt.Sprintf("[%s] %s", now.UTC().Format(time.RFC3339), note))
	d.updatedAt = now
	return nil
}

// MarkReminderSent records that a reminder notification was queued for the
// delivery. It is an error to remind twice.
func (d *Delivery) MarkReminderSent(now time.Time) error {
	if d.reminderSent {
		return errs.NewValueIsInvalidErrorWithCause("reminderSent", errors.New("reminder already sent"))
	}
	d.reminderSent = true
	d.updatedAt = now
	return nil
}
