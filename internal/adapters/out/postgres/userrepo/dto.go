// Package userrepo provides the read-side persistence adapter for user
// accounts. The archival job only needs counts and dormant-account selection;
// account CRUD lives in the main application.
package userrepo

import (
	"time"

	"github.com/google/uuid"
)

// UserDTO mirrors the user table owned by the main application.
type UserDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Role      string    `gorm:"type:varchar(32);not null;default:'user';index"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;index"`
}

// TableName specifies the database table name for user entities.
// Overrides GORM's default naming convention to use "users" instead of "user_dtos".
func (UserDTO) TableName() string {
	return "users"
}
