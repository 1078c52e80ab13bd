package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *ProfileRepository) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.Profile, error) {
	result := make(map[uuid.UUID]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, translate(err)
	}
	for _, p := range profiles {
		result[p.UserID] = p
	}
	return result, nil
}

// Create inserts the profile; a concurrent insert for the same user surfaces
// as ErrConflict.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(profile).Error)
}

func (r *ProfileRepository) UpdateDetails(ctx context.Context, userID uuid.UUID, details models.ProfileDetails) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(details.Columns())
	return result.RowsAffected, translate(result.Error)
}
