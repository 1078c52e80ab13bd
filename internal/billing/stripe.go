package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	cp := &stripe.CustomerParams{Email: stripe.String(params.Email)}
	cp.Context = ctx
	cp.AddMetadata("user_id", params.UserID)

	cust, err := p.api.Customers.New(cp)
	if err != nil {
		return "", providerError(err)
	}
	return cust.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sp := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(params.CustomerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(params.PriceID), Quantity: stripe.Int64(1)},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sp.Context = ctx
	if params.ClientReferenceID != "" {
		sp.ClientReferenceID = stripe.String(params.ClientReferenceID)
	}
	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}

	sess, err := p.api.CheckoutSessions.New(sp)
	if err != nil {
		return nil, providerError(err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) ListActiveSubscriptions(ctx context.Context, customerID string) ([]string, error) {
	lp := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	lp.Context = ctx

	var ids []string
	iter := p.api.Subscriptions.List(lp)
	for iter.Next() {
		ids = append(ids, iter.Subscription().ID)
	}
	if err := iter.Err(); err != nil {
		return nil, providerError(err)
	}
	return ids, nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	cp := &stripe.SubscriptionCancelParams{}
	cp.Context = ctx
	if _, err := p.api.Subscriptions.Cancel(subscriptionID, cp); err != nil {
		return providerError(err)
	}
	return nil
}

func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (string, error) {
	pp := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.AmountMinor),
		Currency: stripe.String(params.Currency),
		Customer: stripe.String(params.CustomerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pp.Context = ctx
	for k, v := range params.Metadata {
		pp.AddMetadata(k, v)
	}

	intent, err := p.api.PaymentIntents.New(pp)
	if err != nil {
		return "", providerError(err)
	}
	return intent.ClientSecret, nil
}

// ParseEvent verifies the webhook signature and decodes the events the
// service handles. Other event types come back with only ID and Type set.
func (p *StripeProvider) ParseEvent(payload []byte, signature string) (*Event, error) {
	if p.webhookSecret == "" {
		return nil, errors.New("webhook secret not configured")
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signature: %w", err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	switch out.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Checkout = &CompletedCheckout{
			SessionID:         sess.ID,
			ClientReferenceID: sess.ClientReferenceID,
			Metadata:          sess.Metadata,
		}
		if sess.Customer != nil {
			out.Checkout.CustomerID = sess.Customer.ID
		}
		if sess.CustomerDetails != nil {
			out.Checkout.Email = sess.CustomerDetails.Email
		}
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		out.Subscription = subscriptionState(&sub)
	}
	return out, nil
}

func subscriptionState(sub *stripe.Subscription) *SubscriptionState {
	state := &SubscriptionState{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
	}
	if sub.Customer != nil {
		state.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		state.PriceID = sub.Items.Data[0].Price.ID
	}
	return state
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// ProviderError carries the provider's own message.
type ProviderError struct {
	Message string
	Code    string
	Err     error
}

func (e *ProviderError) Error() string { return e.Message }
func (e *ProviderError) Unwrap() error { return e.Err }

func providerError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		msg := se.Msg
		if msg == "" {
			msg = err.Error()
		}
		return &ProviderError{Message: msg, Code: string(se.Code), Err: err}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}
