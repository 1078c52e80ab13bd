package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/google/uuid"
)

// SubscriptionService applies billing-provider webhook events to the local
// customer and subscription records.
type SubscriptionService struct {
	registry      *CustomerRegistry
	subscriptions SubscriptionRepository
}

func NewSubscriptionService(registry *CustomerRegistry, subscriptions SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{registry: registry, subscriptions: subscriptions}
}

func (s *SubscriptionService) HandleEvent(ctx context.Context, event *billing.Event) error {
	switch event.Type {
	case billing.EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		return s.handleSubscriptionChange(ctx, event)
	default:
		return nil
	}
}

func (s *SubscriptionService) handleCheckoutCompleted(ctx context.Context, event *billing.Event) error {
	checkout := event.Checkout
	if checkout == nil || checkout.CustomerID == "" {
		return nil
	}
	ref := checkout.ClientReferenceID
	if ref == "" {
		ref = checkout.Metadata["user_id"]
	}
	userID, err := uuid.Parse(ref)
	if err != nil {
		slog.Warn("checkout completed without a user reference", "session_id", checkout.SessionID, "event_id", event.ID)
		return nil
	}
	return s.registry.Link(ctx, userID, checkout.CustomerID, checkout.Email)
}

func (s *SubscriptionService) handleSubscriptionChange(ctx context.Context, event *billing.Event) error {
	state := event.Subscription
	if state == nil || state.ID == "" {
		return nil
	}
	status := state.Status
	if event.Type == billing.EventSubscriptionDeleted && status == "" {
		status = models.SubscriptionCanceled
	}
	sub := &models.Subscription{
		SubscriptionID:     state.ID,
		CustomerID:         state.CustomerID,
		PriceID:            state.PriceID,
		Status:             status,
		CurrentPeriodStart: state.CurrentPeriodStart,
		CurrentPeriodEnd:   state.CurrentPeriodEnd,
		CancelAtPeriodEnd:  state.CancelAtPeriodEnd,
	}
	if err := s.subscriptions.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to store subscription %s: %w", state.ID, err)
	}
	slog.Info("subscription synced", "subscription_id", state.ID, "customer_id", state.CustomerID, "status", status, "event_id", event.ID)
	return nil
}
