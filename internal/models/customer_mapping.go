package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerMapping links an application user to a billing-provider customer.
// Cancellation soft-deletes the row; at most one live row per user.
type CustomerMapping struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_customer_mappings_user_id,unique,where:deleted_at IS NULL" json:"user_id"`
	CustomerID string         `gorm:"not null;size:255;index" json:"customer_id"`
	Email      string         `gorm:"size:255" json:"email"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
