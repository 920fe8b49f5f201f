// Package courierrepo provides the read-side persistence adapter for courier
// records. The monitoring jobs only consume counts; courier CRUD lives in the
// main application.
package courierrepo

import (
	"time"

	"github.com/google/uuid"
)

// CourierDTO mirrors the courier table owned by the main application.
type CourierDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Active    bool      `gorm:"type:boolean;not null;default:true;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the database table name for courier entities.
// Overrides GORM's default naming convention to use "couriers" instead of "courier_dtos".
func (CourierDTO) TableName() string {
	return "couriers"
}
