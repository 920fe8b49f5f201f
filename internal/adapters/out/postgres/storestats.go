// Package postgres provides the shared PostgreSQL plumbing for the adapter
// packages: store liveness, pool statistics, size reporting, and maintenance.
package postgres

import (
	"context"
	"fmt"

	"dispatch/internal/core/ports"

	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"
)

// bytesPerMB converts pg_database_size output to megabytes.
const bytesPerMB = 1024 * 1024

// maintainedTables are the collections refreshed by Optimize.
var maintainedTables = []string{"deliveries", "couriers", "users"}

// StoreStatsProvider reports liveness and sizing information for the backing
// PostgreSQL database and runs its periodic maintenance.
type StoreStatsProvider struct {
	db *gorm.DB
}

// NewStoreStatsProvider creates a stats provider over an open GORM handle.
func NewStoreStatsProvider(db *gorm.DB) *StoreStatsProvider {
	return &StoreStatsProvider{db: db}
}

// Ping verifies connectivity to the database.
func (p *StoreStatsProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns connection pool statistics and the database size. A failed
// size query degrades to zero rather than failing the whole call.
func (p *StoreStatsProvider) Stats(ctx context.Context) (ports.StoreStats, error) {
	sqlDB, err := p.db.DB()
	if err != nil {
		return ports.StoreStats{}, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return ports.StoreStats{}, err
	}

	poolStats := sqlDB.Stats()
	stats := ports.StoreStats{
		Connected:       true,
		OpenConnections: poolStats.OpenConnections,
		InUse:           poolStats.InUse,
	}

	var sizeBytes int64
	if err := p.db.WithContext(ctx).
		Raw("SELECT pg_database_size(current_database())").
		Scan(&sizeBytes).Error; err == nil {
		stats.SizeMB = float64(sizeBytes) / bytesPerMB
	}
	return stats, nil
}

// Optimize refreshes planner statistics over the maintained tables and
// returns how many statements completed. Tables the connected role cannot
// analyze are skipped and reported together.
func (p *StoreStatsProvider) Optimize(ctx context.Context) (int, error) {
	completed := 0
	var errs *multierror.Error
	for _, table := range maintainedTables {
		if err := p.db.WithContext(ctx).Exec("ANALYZE " + table).Error; err != nil {
			errs = multierror.Append(errs, fmt.Errorf("analyze %s: %w", table, err))
			continue
		}
		completed++
	}
	return completed, errs.ErrorOrNil()
}
