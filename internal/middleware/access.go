package middleware

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AccessChecker interface {
	CanAccess(ctx context.Context, caller services.Caller) (services.AccessDecision, error)
}

// SubscriptionRequired admits callers the access gate allows. It must run
// after JWTProtected.
func SubscriptionRequired(gate AccessChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := Caller(c)
		if caller == nil {
			return unauthorized(c)
		}

		decision, err := gate.CanAccess(c.UserContext(), *caller)
		if err != nil {
			slog.Error("access check failed", "user_id", caller.UserID, "error", err, "operation", "subscription_required")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: "Internal server error", Code: "internal",
			})
		}
		if !decision.Allow {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: "An active subscription is required",
				Code:  decision.Reason,
			})
		}
		return c.Next()
	}
}

// PostOnly answers preflight requests with 204 and rejects every method
// other than POST with 405.
func PostOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodOptions:
			return c.SendStatus(fiber.StatusNoContent)
		case fiber.MethodPost:
			return c.Next()
		default:
			c.Set(fiber.HeaderAllow, "POST, OPTIONS")
			return c.Status(fiber.StatusMethodNotAllowed).JSON(dto.ErrorResponse{
				Error: "Method not allowed", Code: "method_not_allowed",
			})
		}
	}
}
