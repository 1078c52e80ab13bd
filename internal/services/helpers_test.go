package services

import (
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing/billingtest"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository/memory"
)

var baseTime = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by the services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store    *memory.Store
	billing  *billingtest.Provider
	clock    *testClock
	cfg      *config.Config
	auth     *AuthService
	profiles *ProfileService
	cooldown *CooldownGuard
	ledger   *SubmissionService
	registry *CustomerRegistry
	checkout *CheckoutService
	cancel   *CancellationService
	admins   *AdminPolicy
	gate     *AccessGate
	webhooks *SubscriptionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clock := newTestClock(baseTime)
	store.SetClock(clock.Now)
	provider := billingtest.New()
	cfg := &config.Config{
		JWTSecret:              "test-secret",
		JWTAccessExpiry:        time.Hour,
		StripeMonthlyPriceID:   "price_monthly",
		StripeAnnualPriceID:    "price_annual",
		CancelConcurrency:      2,
		SubmissionCooldownDays: 30,
		RequireSubscription:    true,
		AdminEmails:            "ops@pullupclub.test",
	}

	f := &fixture{store: store, billing: provider, clock: clock, cfg: cfg}
	f.auth = NewAuthService(store.Users, cfg)
	f.auth.now = clock.Now
	f.profiles = NewProfileService(store.Profiles)
	f.cooldown = NewCooldownGuard(store.Submissions, cfg.SubmissionCooldownDays, clock.Now)
	f.ledger = NewSubmissionService(store.Submissions, store.Profiles, f.profiles, f.cooldown, clock.Now)
	f.registry = NewCustomerRegistry(store.Customers, provider)
	f.checkout = NewCheckoutService(f.registry, f.auth, provider, CheckoutConfig{
		PriceIDs:   cfg.PriceIDs(),
		SuccessURL: "https://app.example.com/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://app.example.com/submit",
	})
	f.cancel = NewCancellationService(store.Customers, store.Subscriptions, provider, cfg.CancelConcurrency)
	f.admins = NewAdminPolicy(cfg, f.profiles)
	f.gate = NewAccessGate(f.admins, store.Subscriptions, cfg.RequireSubscription)
	f.webhooks = NewSubscriptionService(f.registry, store.Subscriptions)
	return f
}

func validSubmission() *dto.CreateSubmissionRequest {
	return &dto.CreateSubmissionRequest{
		FullName:          "Jordan Lee",
		Email:             "jordan@example.com",
		Age:               28,
		Gender:            "male",
		Region:            "North America",
		ClubAffiliation:   "Iron Club",
		PullUpCount:       15,
		VideoURL:          "https://youtube.com/watch?v=abc123",
		VideoConfirmed:    true,
		VideoAuthenticity: true,
	}
}
