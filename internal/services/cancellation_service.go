package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CancellationService cancels every active subscription of a user and
// retires their customer mapping.
type CancellationService struct {
	customers     CustomerRepository
	subscriptions SubscriptionRepository
	billing       billing.Provider
	concurrency   int
}

func NewCancellationService(customers CustomerRepository, subscriptions SubscriptionRepository, provider billing.Provider, concurrency int) *CancellationService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &CancellationService{
		customers:     customers,
		subscriptions: subscriptions,
		billing:       provider,
		concurrency:   concurrency,
	}
}

// CancelAll attempts every cancellation even when some fail. The mapping is
// soft-deleted only after all of them succeeded; otherwise a
// *CancellationError lists the failures and the mapping stays for a retry.
func (s *CancellationService) CancelAll(ctx context.Context, userID uuid.UUID) error {
	mapping, err := s.customers.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load customer mapping: %w", err)
	}

	subscriptionIDs, err := s.billing.ListActiveSubscriptions(ctx, mapping.CustomerID)
	if err != nil {
		return upstream("list_subscriptions", err)
	}

	var mu sync.Mutex
	failed := make(map[string]error)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, id := range subscriptionIDs {
		id := id
		g.Go(func() error {
			if err := s.billing.CancelSubscription(ctx, id); err != nil {
				slog.Error("subscription cancel failed",
					"user_id", userID, "subscription_id", id, "operation", "cancel_subscription", "error", err)
				mu.Lock()
				failed[id] = err
				mu.Unlock()
				return nil
			}
			if err := s.subscriptions.MarkStatus(ctx, id, models.SubscriptionCanceled); err != nil {
				slog.Warn("failed to mark subscription canceled locally",
					"user_id", userID, "subscription_id", id, "operation", "cancel_subscription", "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return &CancellationError{Failed: failed}
	}

	if err := s.customers.SoftDelete(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to update customer record: %w", err)
	}
	slog.Info("subscriptions cancelled",
		"user_id", userID, "customer_id", mapping.CustomerID, "count", len(subscriptionIDs), "operation", "cancel_subscription")
	return nil
}
