// Package billing is the boundary to the subscription billing provider.
package billing

import (
	"context"
	"time"
)

// Provider is the subset of billing-provider operations the service needs.
// Every method is a single provider request; callers decide about retries.
type Provider interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	ListActiveSubscriptions(ctx context.Context, customerID string) ([]string, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (string, error)
}

type CustomerParams struct {
	Email  string
	UserID string
}

type CheckoutParams struct {
	CustomerID        string
	PriceID           string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type PaymentIntentParams struct {
	CustomerID  string
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

// Event types delivered by the provider's webhook that the service consumes.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is a verified webhook event reduced to the fields the service reads.
type Event struct {
	ID           string
	Type         string
	Checkout     *CompletedCheckout
	Subscription *SubscriptionState
}

type CompletedCheckout struct {
	SessionID         string
	CustomerID        string
	ClientReferenceID string
	Email             string
	Metadata          map[string]string
}

type SubscriptionState struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}
