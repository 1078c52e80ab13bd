package middleware

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const adminKey = "is_admin"

// AdminChecker reports whether a caller is an admin.
type AdminChecker interface {
	IsAdmin(ctx context.Context, caller services.Caller) (bool, error)
}

// AdminRequired must run after JWTProtected.
func AdminRequired(admins AdminChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := Caller(c)
		if caller == nil {
			return unauthorized(c)
		}

		ok, err := admins.IsAdmin(c.UserContext(), *caller)
		if err != nil {
			slog.Error("admin check failed", "user_id", caller.UserID, "error", err, "operation", "admin_required")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: "Internal server error", Code: "internal",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: "Admin access required", Code: "forbidden",
			})
		}
		c.Locals(adminKey, true)
		return c.Next()
	}
}

// IsAdmin reports whether AdminRequired admitted this request.
func IsAdmin(c *fiber.Ctx) bool {
	ok, _ := c.Locals(adminKey).(bool)
	return ok
}
