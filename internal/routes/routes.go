package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
	Profile    *handlers.ProfileHandler
	Submission *handlers.SubmissionHandler
	Admin      *handlers.AdminHandler
	Billing    *handlers.BillingHandler
	Webhook    *handlers.WebhookHandler
}

// Guards are the authorization middlewares' collaborators.
type Guards struct {
	Admins middleware.AdminChecker
	Access middleware.AccessChecker
	// Storage backs the rate limiters; nil keeps counters in process memory.
	Storage fiber.Storage
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers, g Guards) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(newLimiter(60, g.Storage))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth", newLimiter(10, g.Storage))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)

	jwt := middleware.JWTProtected(cfg)

	api.Get("/profile", jwt, h.Profile.GetProfile)
	api.Get("/access", jwt, h.Profile.Access)

	api.Get("/submissions/eligibility", jwt, h.Submission.Eligibility)
	api.Get("/submissions/mine", jwt, h.Submission.Mine)
	api.Post("/submissions", jwt, middleware.SubscriptionRequired(g.Access), h.Submission.Create)

	admin := api.Group("/admin", jwt, middleware.AdminRequired(g.Admins))
	admin.Get("/submissions", h.Admin.ListSubmissions)
	admin.Get("/submissions/counts", h.Admin.Counts)
	admin.Post("/submissions/:id/approve", h.Admin.Approve)
	admin.Post("/submissions/:id/reject", h.Admin.Reject)

	// Billing endpoints answer preflight before auth and reject other methods.
	api.All("/checkout", middleware.PostOnly(), h.Billing.Checkout)
	api.All("/cancel-subscription", middleware.PostOnly(), jwt, h.Billing.CancelSubscription)
	api.All("/payment-intent", middleware.PostOnly(), jwt, h.Billing.PaymentIntent)

	// Webhooks are authenticated by signature, not JWT.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/stripe", h.Webhook.HandleStripe)
}

func newLimiter(max int, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Storage:           storage,
	})
}
