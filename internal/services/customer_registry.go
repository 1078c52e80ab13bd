package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/google/uuid"
)

// CustomerOwner identifies who a billing customer belongs to.
type CustomerOwner struct {
	UserID uuid.UUID
	Email  string
}

// CustomerRegistry maps application users to exactly one live billing
// customer.
type CustomerRegistry struct {
	customers CustomerRepository
	billing   billing.Provider
}

func NewCustomerRegistry(customers CustomerRepository, provider billing.Provider) *CustomerRegistry {
	return &CustomerRegistry{customers: customers, billing: provider}
}

// ResolveCustomer returns the user's billing customer id, creating the
// customer and mapping when none exists.
func (r *CustomerRegistry) ResolveCustomer(ctx context.Context, owner CustomerOwner) (string, error) {
	if owner.UserID == uuid.Nil {
		return "", invalid("user_id", "is required")
	}

	existing, err := r.customers.FindByUserID(ctx, owner.UserID)
	if err == nil {
		return existing.CustomerID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("failed to load customer mapping: %w", err)
	}

	customerID, err := r.billing.CreateCustomer(ctx, billing.CustomerParams{
		Email:  owner.Email,
		UserID: owner.UserID.String(),
	})
	if err != nil {
		return "", upstream("create_customer", err)
	}

	mapping := &models.CustomerMapping{
		UserID:     owner.UserID,
		CustomerID: customerID,
		Email:      owner.Email,
	}
	err = r.customers.Create(ctx, mapping)
	if err == nil {
		slog.Info("billing customer created", "user_id", owner.UserID, "customer_id", customerID, "operation", "resolve_customer")
		return customerID, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return "", fmt.Errorf("failed to store customer mapping: %w", err)
	}

	winner, err := r.customers.FindByUserID(ctx, owner.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to reload customer mapping after conflict: %w", err)
	}
	slog.Warn("orphaned billing customer after concurrent resolve",
		"user_id", owner.UserID, "orphan_customer_id", customerID, "customer_id", winner.CustomerID, "operation", "resolve_customer")
	return winner.CustomerID, nil
}

// Link records a mapping reported by the provider (checkout completion).
// An existing live mapping for the user is left untouched.
func (r *CustomerRegistry) Link(ctx context.Context, userID uuid.UUID, customerID, email string) error {
	if _, err := r.customers.FindByCustomerID(ctx, customerID); err == nil {
		return nil
	}
	err := r.customers.Create(ctx, &models.CustomerMapping{UserID: userID, CustomerID: customerID, Email: email})
	if err == nil || errors.Is(err, repository.ErrConflict) {
		return nil
	}
	return fmt.Errorf("failed to link customer: %w", err)
}
