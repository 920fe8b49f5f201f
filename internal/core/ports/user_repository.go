package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InactiveAccount is a summary of a dormant user account flagged by the
// archiver for manual review. Accounts are flagged, never auto-deleted.
type InactiveAccount struct {
	ID          uuid.UUID
	Email       string
	LastUpdated time.Time
}

// UserRepository defines the read contract for user accounts.
type UserRepository interface {
	// Count returns the total number of user accounts.
	Count(ctx context.Context) (int64, error)

	// FindInactive retrieves non-admin accounts that were last modified
	// before the cutoff and own zero deliveries.
	FindInactive(ctx context.Context, cutoff time.Time) ([]InactiveAccount, error)
}
