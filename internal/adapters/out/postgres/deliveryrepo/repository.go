package deliveryrepo

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/delivery"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDeliveryRepository implements DeliveryRepository using GORM.
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GORM delivery repository.
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// Count returns the total number of delivery records.
func (r *GormDeliveryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DeliveryDTO{}).Count(&count).Error
	return count, err
}

// CountByStatus returns delivery counts grouped by lifecycle status.
func (r *GormDeliveryRepository) CountByStatus(ctx context.Context) (map[delivery.Status]int64, error) {
	var rows []struct {
		Status int
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&DeliveryDTO{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[delivery.Status]int64, len(rows))
	for _, row := range rows {
		counts[delivery.Status(row.Status)] = row.Count
	}
	return counts, nil
}

// FindOverdue retrieves in-transit deliveries whose estimate lies before asOf.
func (r *GormDeliveryRepository) FindOverdue(ctx context.Context, asOf time.Time) ([]*delivery.Delivery, error) {
	var dtos []DeliveryDTO
	if err := r.db.WithContext(ctx).
		Where("status = ? AND estimated_delivery_at < ?", int(delivery.InTransit), asOf).
		Order("estimated_delivery_at").
		Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

// Update saves an existing delivery to the database. Only the columns the
// jobs own are written, so application-owned columns such as user_id are
// never clobbered.
func (r *GormDeliveryRepository) Update(ctx context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&DeliveryDTO{ID: dto.ID}).
		Select("Status", "Notes", "ReminderSent", "UpdatedAt").
		Updates(dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindArchivable retrieves Delivered or Cancelled deliveries last modified
// before the cutoff.
func (r *GormDeliveryRepository) FindArchivable(ctx context.Context, cutoff time.Time) ([]*delivery.Delivery, error) {
	var dtos []DeliveryDTO
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]int{int(delivery.Delivered), int(delivery.Cancelled)}, cutoff).
		Order("updated_at").
		Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

// DeleteByIDs removes exactly the given records and reports how many rows
// were deleted. Deletion is by identifier, never by re-evaluated filter.
func (r *GormDeliveryRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&DeliveryDTO{}, "id IN ?", ids)
	return result.RowsAffected, result.Error
}

// FindDueForReminder retrieves in-transit deliveries whose estimate falls
// within (from, until] and that have not been reminded yet.
func (r *GormDeliveryRepository) FindDueForReminder(ctx context.Context, from, until time.Time) ([]*delivery.Delivery, error) {
	var dtos []DeliveryDTO
	if err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent = false AND estimated_delivery_at > ? AND estimated_delivery_at <= ?",
			int(delivery.InTransit), from, until).
		Order("estimated_delivery_at").
		Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

// MarkReminderSent flips the reminder flag in a single conditional update.
// Returns false when the flag was already set or the record is gone, which
// guards against duplicate reminders.
func (r *GormDeliveryRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&DeliveryDTO{}).
		Where("id = ? AND reminder_sent = false", id).
		Updates(map[string]any{"reminder_sent": true, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func toDomainAll(dtos []DeliveryDTO) ([]*delivery.Delivery, error) {
	deliveries := make([]*delivery.Delivery, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}
