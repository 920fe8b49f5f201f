// Package deliveryrepo provides data transfer objects and mapping functions for delivery persistence.
// This package implements the repository pattern for the delivery domain aggregate, handling
// the conversion between domain entities and database representations.
package deliveryrepo

import (
	"time"

	"dispatch/internal/core/domain/model/delivery"

	"github.com/google/uuid"
)

// DeliveryDTO represents the database structure for persisting delivery
// aggregates. UserID records account ownership and is written by the main
// application only; the jobs read it for dormant-account selection.
type DeliveryDTO struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID             string     `gorm:"type:varchar(255);not null;index"`
	UserID              *uuid.UUID `gorm:"type:uuid;index"`
	Status              int        `gorm:"type:int;not null;index"`
	EstimatedDeliveryAt time.Time  `gorm:"type:timestamptz;not null;index"`
	ReminderSent        bool       `gorm:"type:boolean;not null;default:false"`
	Notes               []string   `gorm:"serializer:json;type:jsonb"`
	CreatedAt           time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt           time.Time  `gorm:"type:timestamptz;not null;index"`
}

// TableName specifies the database table name for delivery entities.
// Overrides GORM's default naming convention to use "deliveries" instead of "delivery_dtos".
func (DeliveryDTO) TableName() string {
	return "deliveries"
}

// fromDomain converts a delivery domain aggregate to its database representation.
func fromDomain(aggregate *delivery.Delivery) DeliveryDTO {
	return DeliveryDTO{
		ID:                  aggregate.ID(),
		OrderID:             aggregate.OrderID(),
		Status:              int(aggregate.Status()),
		EstimatedDeliveryAt: aggregate.EstimatedDeliveryAt(),
		ReminderSent:        aggregate.ReminderSent(),
		Notes:               aggregate.Notes(),
		CreatedAt:           aggregate.CreatedAt(),
		UpdatedAt:           aggregate.UpdatedAt(),
	}
}

// toDomain converts a database DTO to a delivery domain aggregate.
// Reconstructs the aggregate with its persisted state using RestoreDelivery.
func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	return delivery.RestoreDelivery(
		dto.ID,
		dto.OrderID,
		delivery.Status(dto.Status),
		dto.EstimatedDeliveryAt,
		dto.ReminderSent,
		dto.Notes,
		dto.CreatedAt,
		dto.UpdatedAt,
	)
}
