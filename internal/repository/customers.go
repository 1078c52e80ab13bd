package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.CustomerMapping, error) {
	var mapping models.CustomerMapping
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&mapping).Error; err != nil {
		return nil, translate(err)
	}
	return &mapping, nil
}

func (r *CustomerRepository) FindByCustomerID(ctx context.Context, customerID string) (*models.CustomerMapping, error) {
	var mapping models.CustomerMapping
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&mapping).Error; err != nil {
		return nil, translate(err)
	}
	return &mapping, nil
}

func (r *CustomerRepository) Create(ctx context.Context, mapping *models.CustomerMapping) error {
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(mapping).Error)
}

// SoftDelete stamps deleted_at on the user's live mapping.
func (r *CustomerRepository) SoftDelete(ctx context.Context, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CustomerMapping{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
