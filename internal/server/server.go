// Package server assembles the Fiber application from its collaborators.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Stores are the repositories for one storage driver.
type Stores struct {
	Users         services.UserRepository
	Profiles      services.ProfileRepository
	Submissions   services.SubmissionRepository
	Customers     services.CustomerRepository
	Subscriptions services.SubscriptionRepository
	// Ping checks the database; nil for in-memory stores.
	Ping func() error
}

// BillingProvider is the billing API plus webhook verification.
type BillingProvider interface {
	billing.Provider
	handlers.EventParser
}

type Deps struct {
	Stores  Stores
	Billing BillingProvider
	// LimiterStorage is optional shared storage for rate limit counters.
	LimiterStorage fiber.Storage
	// AccessLog enables the per-request access logger.
	AccessLog bool
	// Now pins the clock; nil uses the system clock.
	Now services.Clock
}

// New wires services, handlers and middleware into a ready app.
func New(cfg *config.Config, deps Deps) (*fiber.App, error) {
	st := deps.Stores

	authService := services.NewAuthService(st.Users, cfg)
	profileService := services.NewProfileService(st.Profiles)
	cooldown := services.NewCooldownGuard(st.Submissions, cfg.SubmissionCooldownDays, deps.Now)
	submissionService := services.NewSubmissionService(st.Submissions, st.Profiles, profileService, cooldown, deps.Now)
	registry := services.NewCustomerRegistry(st.Customers, deps.Billing)
	admins := services.NewAdminPolicy(cfg, profileService)
	gate := services.NewAccessGate(admins, st.Subscriptions, cfg.RequireSubscription)
	base := strings.TrimRight(cfg.AppBaseURL, "/")
	checkoutService := services.NewCheckoutService(registry, authService, deps.Billing, services.CheckoutConfig{
		PriceIDs:   cfg.PriceIDs(),
		SuccessURL: base + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/submit",
	})
	cancellationService := services.NewCancellationService(st.Customers, st.Subscriptions, deps.Billing, cfg.CancelConcurrency)
	paymentService, err := services.NewPaymentService(registry, deps.Billing, cfg.PaymentIntentAmount, cfg.PaymentIntentCurrency)
	if err != nil {
		return nil, fmt.Errorf("payment service: %w", err)
	}
	subscriptionService := services.NewSubscriptionService(registry, st.Subscriptions)

	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	if deps.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}))
	}
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Health:     handlers.NewHealthHandler(st.Ping),
		Profile:    handlers.NewProfileHandler(profileService, gate),
		Submission: handlers.NewSubmissionHandler(submissionService, cooldown),
		Admin:      handlers.NewAdminHandler(submissionService),
		Billing:    handlers.NewBillingHandler(checkoutService, cancellationService, paymentService, authService, admins),
		Webhook:    handlers.NewWebhookHandler(deps.Billing, subscriptionService),
	}, routes.Guards{
		Admins:  admins,
		Access:  gate,
		Storage: deps.LimiterStorage,
	})

	return app, nil
}

// ErrorHandler renders errors that escaped the handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: message, Code: errorCode(code)})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return handlers.CodeNotFound
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	}
	if status >= 500 {
		return handlers.CodeInternal
	}
	return handlers.CodeValidation
}
