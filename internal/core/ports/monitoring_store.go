package ports

import (
	"context"

	"dispatch/internal/core/domain/model/monitoring"
)

// MetricsStore persists performance snapshots into a dated, capped log and
// maintains the streaming rolling summary.
type MetricsStore interface {
	// Append adds a snapshot to the day's log and folds it into the
	// rolling summary.
	Append(ctx context.Context, snapshot monitoring.MetricsSnapshot) error

	// Latest returns the most recent snapshot, or nil when none exists.
	Latest(ctx context.Context) (*monitoring.MetricsSnapshot, error)

	// Summary returns the rolling aggregate over all observed snapshots.
	Summary(ctx context.Context) (monitoring.RollingSummary, error)
}

// HealthStore persists health snapshots into a dated, capped log and mirrors
// the latest one into a single current record.
type HealthStore interface {
	// Append adds a snapshot to the day's log and overwrites the current
	// status record.
	Append(ctx context.Context, snapshot monitoring.HealthSnapshot) error

	// Current returns the last written snapshot, or nil when none exists.
	Current(ctx context.Context) (*monitoring.HealthSnapshot, error)
}

// StoreStats reports the backing store's connection state and size.
type StoreStats struct {
	Connected       bool
	OpenConnections int
	InUse           int
	SizeMB          float64
}

// StoreStatsProvider exposes liveness and sizing information about the
// backing store for the monitoring jobs.
type StoreStatsProvider interface {
	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Stats returns pool and size statistics.
	Stats(ctx context.Context) (StoreStats, error)

	// Optimize runs store maintenance (statistics refresh over the
	// primary collections) and returns how many maintenance statements
	// completed.
	Optimize(ctx context.Context) (int, error)
}
