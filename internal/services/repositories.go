package services

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/google/uuid"
)

// The repository contracts below are satisfied by the GORM implementations in
// internal/repository and the in-memory ones in internal/repository/memory.
// Lookups return repository.ErrNotFound; unique-key races on Create return
// repository.ErrConflict.

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Claim(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string) (int64, error)
}

type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	UpdateDetails(ctx context.Context, userID uuid.UUID, details models.ProfileDetails) (int64, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	CreateIfNoneSince(ctx context.Context, submission *models.Submission, since time.Time) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	LatestByUser(ctx context.Context, userID uuid.UUID) (*models.Submission, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Submission, error)
	List(ctx context.Context, q repository.SubmissionQuery) ([]models.Submission, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	Transition(ctx context.Context, id uuid.UUID, from, to string, actual *int, reviewer uuid.UUID, at time.Time) (int64, error)
}

type CustomerRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.CustomerMapping, error)
	FindByCustomerID(ctx context.Context, customerID string) (*models.CustomerMapping, error)
	Create(ctx context.Context, mapping *models.CustomerMapping) error
	SoftDelete(ctx context.Context, userID uuid.UUID) error
}

type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.Subscription) error
	MarkStatus(ctx context.Context, subscriptionID, status string) error
	StatusForUser(ctx context.Context, userID uuid.UUID) (string, error)
}

// Clock returns the current time; services take one so tests can pin it.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
