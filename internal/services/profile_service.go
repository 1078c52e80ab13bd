package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/google/uuid"
)

// ProfileService owns the per-user profile row. Creation paths converge on a
// single row when callers race on the same user.
type ProfileService struct {
	profiles ProfileRepository
}

func NewProfileService(profiles ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// EnsureProfile returns the user's profile, creating the default one on
// first access. Losing the insert race returns the winner's row.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	profile = &models.Profile{
		UserID:             userID,
		Role:               models.RoleUser,
		IsProfileCompleted: false,
	}
	err = s.profiles.Create(ctx, profile)
	if err == nil {
		slog.Info("profile created", "user_id", userID, "operation", "ensure_profile")
		return profile, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	winner, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload profile after conflict: %w", err)
	}
	return winner, nil
}

// CompleteProfile writes the submission flow's personal data, inserting the
// row if the user has none yet.
func (s *ProfileService) CompleteProfile(ctx context.Context, userID uuid.UUID, details models.ProfileDetails) (*models.Profile, error) {
	updated, err := s.profiles.UpdateDetails(ctx, userID, details)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if updated == 0 {
		profile := &models.Profile{UserID: userID, Role: models.RoleUser}
		details.Apply(profile)
		err = s.profiles.Create(ctx, profile)
		switch {
		case err == nil:
			return profile, nil
		case errors.Is(err, repository.ErrConflict):
			// Another request created the row between our update and insert.
			if _, err := s.profiles.UpdateDetails(ctx, userID, details); err != nil {
				return nil, fmt.Errorf("failed to update profile after conflict: %w", err)
			}
		default:
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload profile: %w", err)
	}
	return profile, nil
}

// Role returns the user's role, treating a missing profile as a plain user.
func (s *ProfileService) Role(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.RoleUser, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load profile role: %w", err)
	}
	return profile.Role, nil
}
