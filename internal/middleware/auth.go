package middleware

import (
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "caller"

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			caller, err := callerFromToken(c)
			if err != nil {
				return unauthorized(c)
			}
			c.Locals(callerKey, caller)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

// Caller returns the authenticated caller stored by JWTProtected, or nil on
// routes without it.
func Caller(c *fiber.Ctx) *services.Caller {
	caller, _ := c.Locals(callerKey).(*services.Caller)
	return caller
}

func callerFromToken(c *fiber.Ctx) (*services.Caller, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, services.ErrInvalidToken
	}
	return services.CallerFromClaims(token.Claims)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: "Unauthorized: invalid or expired token",
		Code:  "unauthorized",
	})
}
