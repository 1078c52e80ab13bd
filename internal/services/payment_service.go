package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing"
	"github.com/shopspring/decimal"
)

// PaymentService creates one-off payment intents for signed-in users.
type PaymentService struct {
	registry    *CustomerRegistry
	billing     billing.Provider
	amountMinor int64
	currency    string
}

// NewPaymentService parses amount as a decimal in major units ("10.00").
func NewPaymentService(registry *CustomerRegistry, provider billing.Provider, amount, currency string) (*PaymentService, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid payment intent amount %q: %w", amount, err)
	}
	if !d.IsPositive() {
		return nil, fmt.Errorf("payment intent amount must be positive, got %s", amount)
	}
	return &PaymentService{
		registry:    registry,
		billing:     provider,
		amountMinor: d.Shift(2).Round(0).IntPart(),
		currency:    strings.ToLower(currency),
	}, nil
}

func (s *PaymentService) CreatePaymentIntent(ctx context.Context, caller Caller) (string, error) {
	customerID, err := s.registry.ResolveCustomer(ctx, CustomerOwner{UserID: caller.UserID, Email: caller.Email})
	if err != nil {
		return "", err
	}
	secret, err := s.billing.CreatePaymentIntent(ctx, billing.PaymentIntentParams{
		CustomerID:  customerID,
		AmountMinor: s.amountMinor,
		Currency:    s.currency,
		Metadata:    map[string]string{"user_id": caller.UserID.String()},
	})
	if err != nil {
		return "", upstream("create_payment_intent", err)
	}
	return secret, nil
}

// AmountMinor is the configured charge in the currency's minor unit.
func (s *PaymentService) AmountMinor() int64 {
	return s.amountMinor
}
