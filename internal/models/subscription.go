package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

// Subscription mirrors the billing provider's subscription state, kept up to
// date by webhooks and local cancellations.
type Subscription struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubscriptionID     string     `gorm:"not null;size:255;uniqueIndex" json:"subscription_id"`
	CustomerID         string     `gorm:"not null;size:255;index" json:"customer_id"`
	PriceID            string     `gorm:"size:255" json:"price_id"`
	Status             string     `gorm:"not null;default:'incomplete';size:50" json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
