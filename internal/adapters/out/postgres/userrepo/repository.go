package userrepo

import (
	"context"
	"time"

	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Count returns the total number of user accounts.
func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserDTO{}).Count(&count).Error
	return count, err
}

// FindInactive retrieves non-admin accounts last modified before the cutoff
// that own zero deliveries. Matching accounts are flagged for manual review,
// never deleted.
func (r *GormUserRepository) FindInactive(ctx context.Context, cutoff time.Time) ([]ports.InactiveAccount, error) {
	var rows []struct {
		ID          uuid.UUID
		Email       string
		LastUpdated time.Time
	}
	if err := r.db.WithContext(ctx).
		Model(&UserDTO{}).
		Select("users.id, users.email, users.updated_at as last_updated").
		Joins("LEFT JOIN deliveries ON deliveries.user_id = users.id").
		Where("users.role <> ? AND users.updated_at < ?", "admin", cutoff).
		Group("users.id, users.email, users.updated_at").
		Having("count(deliveries.id) = 0").
		Order("users.updated_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	accounts := make([]ports.InactiveAccount, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, ports.InactiveAccount{
			ID:          row.ID,
			Email:       row.Email,
			LastUpdated: row.LastUpdated,
		})
	}
	return accounts, nil
}
