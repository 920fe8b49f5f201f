// Package ports defines the interfaces between the job layer and its
// collaborators: the persistent delivery/courier/user store, the file-backed
// notification/metrics/health stores, and the store statistics provider.
// These interfaces establish contracts between the domain layer and
// infrastructure, enabling dependency inversion and testability.
package ports

import "context"

// CourierRepository defines the read contract for courier records. The
// monitoring jobs only need counts; courier CRUD lives outside this subsystem.
type CourierRepository interface {
	// Count returns the total number of courier records.
	Count(ctx context.Context) (int64, error)

	// CountActive returns the number of couriers currently marked active.
	CountActive(ctx context.Context) (int64, error)
}
