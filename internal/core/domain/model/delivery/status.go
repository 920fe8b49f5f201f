package delivery

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of a delivery.
//
// State transitions:
//
//	Pending ──> InTransit ──┬──> Delivered
//	                        └──> Cancelled
//
// Pending and Cancelled may also transition directly between each other
// when an order is withdrawn before pickup.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status: the delivery exists but no courier
	// has picked it up yet.
	Pending

	// InTransit indicates a courier is carrying the delivery.
	// Only deliveries in this status are subject to overdue detection
	// and reminder generation.
	InTransit

	// Delivered indicates the delivery reached its recipient.
	// Terminal status; eligible for archival after the retention window.
	Delivered

	// Cancelled indicates the delivery was withdrawn.
	// Terminal status; eligible for archival after the retention window.
	Cancelled
)

// getStatusStrings returns a map of Status values to their string representations.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "Unknown",
		Pending:   "Pending",
		InTransit: "In Transit",
		Delivered: "Delivered",
		Cancelled: "Cancelled",
	}
}

// getValidStatusStrings returns a map of only valid Status values.
func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:   "Pending",
		InTransit: "In Transit",
		Delivered: "Delivered",
		Cancelled: "Cancelled",
	}
}

// Validate checks if the Status value is valid.
// Unknown (0) and any out-of-range values are invalid.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status, e.g. "In Transit".
// Implements fmt.Stringer and is safe to call on any Status value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// StatusFromString parses the human-readable name back into a Status.
// Returns an error for names that do not map to a valid status.
func StatusFromString(name string) (Status, error) {
	for status, str := range getValidStatusStrings() {
		if str == name {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status name", name))
}

// Archivable reports whether deliveries in this status may be moved to the
// archive once the retention window has elapsed.
func (s Status) Archivable() bool {
	return s == Delivered || s == Cancelled
}
