package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account in the local identity provider. Guest accounts are
// provisioned by checkout and have no password until claimed with the
// token whose SHA-256 is ClaimTokenHash.
type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email          string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password       *string        `json:"-"`
	IsGuest        bool           `gorm:"not null;default:false" json:"is_guest"`
	ClaimTokenHash *string        `gorm:"size:64" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
