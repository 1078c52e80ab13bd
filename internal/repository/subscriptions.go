package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert inserts or refreshes a subscription keyed by the provider's id.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer_id", "price_id", "status",
			"current_period_start", "current_period_end",
			"cancel_at_period_end", "updated_at",
		}),
	}).Create(sub).Error
	return translate(err)
}

func (r *SubscriptionRepository) MarkStatus(ctx context.Context, subscriptionID, status string) error {
	return translate(r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscription_id = ?", subscriptionID).
		Update("status", status).Error)
}

// StatusForUser returns the most relevant subscription status for the user's
// live customer mapping: active wins, otherwise the latest update.
func (r *SubscriptionRepository) StatusForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	var statuses []string
	err := r.db.WithContext(ctx).
		Table("subscriptions AS s").
		Joins("JOIN customer_mappings AS c ON c.customer_id = s.customer_id AND c.deleted_at IS NULL").
		Where("c.user_id = ?", userID).
		Order("CASE WHEN s.status = 'active' THEN 0 ELSE 1 END, s.updated_at DESC").
		Limit(1).
		Pluck("s.status", &statuses).Error
	if err != nil {
		return "", translate(err)
	}
	if len(statuses) == 0 {
		return "", ErrNotFound
	}
	return statuses[0], nil
}
