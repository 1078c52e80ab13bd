package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
)

const (
	ReasonAdmin                     = "admin"
	ReasonActiveSubscription        = "active_subscription"
	ReasonNoActiveSubscription      = "no_active_subscription"
	ReasonSubscriptionCheckDisabled = "subscription_check_disabled"
)

type AccessDecision struct {
	Allow  bool
	Reason string
}

// AccessGate admits admins permanently and other users while their
// subscription is active.
type AccessGate struct {
	admins              *AdminPolicy
	subscriptions       SubscriptionRepository
	requireSubscription bool
}

func NewAccessGate(admins *AdminPolicy, subscriptions SubscriptionRepository, requireSubscription bool) *AccessGate {
	return &AccessGate{
		admins:              admins,
		subscriptions:       subscriptions,
		requireSubscription: requireSubscription,
	}
}

func (g *AccessGate) CanAccess(ctx context.Context, caller Caller) (AccessDecision, error) {
	isAdmin, err := g.admins.IsAdmin(ctx, caller)
	if err != nil {
		return AccessDecision{}, err
	}
	if isAdmin {
		return AccessDecision{Allow: true, Reason: ReasonAdmin}, nil
	}
	if !g.requireSubscription {
		return AccessDecision{Allow: true, Reason: ReasonSubscriptionCheckDisabled}, nil
	}

	status, err := g.subscriptions.StatusForUser(ctx, caller.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return AccessDecision{Allow: false, Reason: ReasonNoActiveSubscription}, nil
	}
	if err != nil {
		return AccessDecision{}, fmt.Errorf("failed to load subscription status: %w", err)
	}
	if status == models.SubscriptionActive {
		return AccessDecision{Allow: true, Reason: ReasonActiveSubscription}, nil
	}
	return AccessDecision{Allow: false, Reason: ReasonNoActiveSubscription}, nil
}
