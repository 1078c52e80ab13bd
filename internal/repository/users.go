package repository

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// Claim sets a password on a guest account holding tokenHash and burns the
// token. Zero rows affected means the token does not match or the account
// is gone or was claimed concurrently.
func (r *UserRepository) Claim(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_guest = ? AND claim_token_hash = ?", id, true, tokenHash).
		Updates(map[string]interface{}{
			"password":         passwordHash,
			"is_guest":         false,
			"claim_token_hash": nil,
		})
	return result.RowsAffected, translate(result.Error)
}
