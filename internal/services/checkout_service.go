package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/google/uuid"
)

const guestUserRef = "guest"

// GuestProvisioner resolves or creates the application account a guest
// checkout is attached to.
type GuestProvisioner interface {
	FindOrCreateGuest(ctx context.Context, email string) (*GuestAccount, error)
}

// CheckoutIntent is the per-request input of a checkout; it is never stored.
type CheckoutIntent struct {
	Plan     string
	Email    string
	Caller   *Caller
	FormData *dto.CheckoutFormData
}

// Caller is an authenticated requester.
type Caller struct {
	UserID uuid.UUID
	Email  string
}

// CheckoutResult is a created checkout session. ClaimToken is set when the
// checkout provisioned a new guest account.
type CheckoutResult struct {
	Session    *billing.CheckoutSession
	ClaimToken string
}

type CheckoutConfig struct {
	PriceIDs   map[string]string
	SuccessURL string
	CancelURL  string
}

// CheckoutService starts subscription checkouts, provisioning guest accounts
// for buyers who are not signed in.
type CheckoutService struct {
	registry *CustomerRegistry
	guests   GuestProvisioner
	billing  billing.Provider
	cfg      CheckoutConfig
}

func NewCheckoutService(registry *CustomerRegistry, guests GuestProvisioner, provider billing.Provider, cfg CheckoutConfig) *CheckoutService {
	return &CheckoutService{registry: registry, guests: guests, billing: provider, cfg: cfg}
}

func (s *CheckoutService) StartCheckout(ctx context.Context, intent CheckoutIntent) (*CheckoutResult, error) {
	plan := strings.ToLower(strings.TrimSpace(intent.Plan))
	if plan == "" {
		return nil, invalid("plan", "is required")
	}
	priceID, ok := s.cfg.PriceIDs[plan]
	if !ok || priceID == "" {
		return nil, invalid("plan", "must be monthly or annual")
	}

	email := strings.TrimSpace(intent.Email)
	if intent.Caller == nil {
		if email == "" {
			return nil, invalid("email", "is required for guest checkout")
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, invalid("email", "is not a valid address")
		}
	}

	var (
		userID  uuid.UUID
		isGuest bool
		claim   string
	)
	if intent.Caller != nil {
		userID = intent.Caller.UserID
		if intent.Caller.Email != "" {
			email = intent.Caller.Email
		}
	} else {
		guest, err := s.guests.FindOrCreateGuest(ctx, email)
		if err != nil {
			return nil, err
		}
		userID = guest.User.ID
		isGuest = true
		claim = guest.ClaimToken
	}

	customerID, err := s.registry.ResolveCustomer(ctx, CustomerOwner{UserID: userID, Email: email})
	if err != nil {
		return nil, err
	}

	metadata, err := checkoutMetadata(userID, isGuest, intent.FormData)
	if err != nil {
		return nil, err
	}

	session, err := s.billing.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerID:        customerID,
		PriceID:           priceID,
		SuccessURL:        s.cfg.SuccessURL,
		CancelURL:         s.cfg.CancelURL,
		ClientReferenceID: userID.String(),
		Metadata:          metadata,
	})
	if err != nil {
		return nil, upstream("create_checkout_session", err)
	}
	if session.URL == "" {
		return nil, upstream("create_checkout_session", errors.New("billing provider returned no checkout url"))
	}

	slog.Info("checkout session created",
		"user_id", userID, "session_id", session.ID, "plan", plan, "is_guest", isGuest, "operation", "start_checkout")
	return &CheckoutResult{Session: session, ClaimToken: claim}, nil
}

func checkoutMetadata(userID uuid.UUID, isGuest bool, form *dto.CheckoutFormData) (map[string]string, error) {
	ref := guestUserRef
	if userID != uuid.Nil {
		ref = userID.String()
	}
	metadata := map[string]string{
		"user_id":  ref,
		"is_guest": fmt.Sprintf("%t", isGuest),
	}
	if form != nil {
		raw, err := json.Marshal(form)
		if err != nil {
			return nil, fmt.Errorf("failed to encode form data: %w", err)
		}
		metadata["form_data"] = string(raw)
	}
	return metadata, nil
}
