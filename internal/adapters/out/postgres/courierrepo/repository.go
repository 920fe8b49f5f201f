package courierrepo

import (
	"context"

	"gorm.io/gorm"
)

// GormCourierRepository implements CourierRepository using GORM.
type GormCourierRepository struct {
	db *gorm.DB
}

// NewGormCourierRepository creates a new GORM courier repository.
func NewGormCourierRepository(db *gorm.DB) *GormCourierRepository {
	return &GormCourierRepository{db: db}
}

// Count returns the total number of courier records.
func (r *GormCourierRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&CourierDTO{}).Count(&count).Error
	return count, err
}

// CountActive returns the number of couriers currently marked active.
func (r *GormCourierRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&CourierDTO{}).Where("active = true").Count(&count).Error
	return count, err
}
