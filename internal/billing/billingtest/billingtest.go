// Package billingtest provides a recording billing.Provider for tests.
package billingtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing"
)

// Provider records every call and serves canned subscriptions. Fail* hooks
// return provider errors for targeted calls.
type Provider struct {
	mu sync.Mutex

	Customers     []billing.CustomerParams
	Sessions      []billing.CheckoutParams
	Intents       []billing.PaymentIntentParams
	Cancelled     []string
	CancelAttempt []string

	// Subscriptions maps a customer id to its active subscription ids.
	Subscriptions map[string][]string

	FailCreateCustomer error
	FailCheckout       error
	FailList           error
	FailCancel         map[string]error
}

func New() *Provider {
	return &Provider{
		Subscriptions: make(map[string][]string),
		FailCancel:    make(map[string]error),
	}
}

func (p *Provider) CreateCustomer(_ context.Context, params billing.CustomerParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailCreateCustomer != nil {
		return "", p.FailCreateCustomer
	}
	p.Customers = append(p.Customers, params)
	return fmt.Sprintf("cus_test_%d", len(p.Customers)), nil
}

func (p *Provider) CreateCheckoutSession(_ context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailCheckout != nil {
		return nil, p.FailCheckout
	}
	p.Sessions = append(p.Sessions, params)
	id := fmt.Sprintf("cs_test_%d", len(p.Sessions))
	return &billing.CheckoutSession{ID: id, URL: "https://checkout.example.com/pay/" + id}, nil
}

func (p *Provider) ListActiveSubscriptions(_ context.Context, customerID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailList != nil {
		return nil, p.FailList
	}
	return append([]string(nil), p.Subscriptions[customerID]...), nil
}

func (p *Provider) CancelSubscription(_ context.Context, subscriptionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CancelAttempt = append(p.CancelAttempt, subscriptionID)
	if err := p.FailCancel[subscriptionID]; err != nil {
		return err
	}
	p.Cancelled = append(p.Cancelled, subscriptionID)
	return nil
}

func (p *Provider) CreatePaymentIntent(_ context.Context, params billing.PaymentIntentParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Intents = append(p.Intents, params)
	return fmt.Sprintf("pi_test_%d_secret", len(p.Intents)), nil
}

// CustomerCount returns how many customers were created.
func (p *Provider) CustomerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Customers)
}

// Signature is the only Stripe-Signature value ParseEvent accepts.
const Signature = "t=1,v1=test"

// ParseEvent decodes payload as a JSON billing.Event when signature is
// Signature.
func (p *Provider) ParseEvent(payload []byte, signature string) (*billing.Event, error) {
	if signature != Signature {
		return nil, errors.New("invalid webhook signature")
	}
	var event billing.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &event, nil
}
