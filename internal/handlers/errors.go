package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

const (
	CodeValidation        = "validation"
	CodeCooldown          = "cooldown"
	CodeNotFound          = "not_found"
	CodeInvalidTransition = "invalid_transition"
	CodeAccountExists     = "account_exists"
	CodeEmailTaken        = "email_taken"
	CodeClaimRequired     = "claim_required"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeUpstream          = "upstream"
	CodeCancellation      = "cancellation_failed"
	CodeInternal          = "internal"
)

// respondError maps service errors to HTTP responses. Anything unrecognised
// is a 500 with a generic message and is reported to Sentry.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validationErr   *services.ValidationError
		cooldownErr     *services.CooldownError
		upstreamErr     *services.UpstreamError
		cancellationErr *services.CancellationError
	)

	switch {
	case errors.As(err, &validationErr):
		return writeError(c, fiber.StatusBadRequest, CodeValidation, validationErr.Error())
	case errors.As(err, &cooldownErr):
		retryAfter := cooldownErr.RetryAfter.UTC()
		seconds := int(math.Ceil(cooldownErr.Remaining.Seconds()))
		if seconds > 0 {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
		}
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Error:      cooldownErr.Error(),
			Code:       CodeCooldown,
			RetryAfter: &retryAfter,
		})
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return writeError(c, fiber.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		return writeError(c, fiber.StatusConflict, CodeInvalidTransition, err.Error())
	case errors.Is(err, services.ErrAccountExists):
		return writeError(c, fiber.StatusConflict, CodeAccountExists, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		return writeError(c, fiber.StatusConflict, CodeEmailTaken, err.Error())
	case errors.Is(err, services.ErrClaimRequired):
		return writeError(c, fiber.StatusConflict, CodeClaimRequired, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		return writeError(c, fiber.StatusUnauthorized, CodeUnauthorized, err.Error())
	case errors.As(err, &cancellationErr):
		report(c, err)
		return writeError(c, fiber.StatusBadGateway, CodeCancellation, cancellationErr.Error())
	case errors.As(err, &upstreamErr):
		report(c, err)
		slog.Error("upstream call failed", "operation", upstreamErr.Op, "error", err, "request_id", requestID(c))
		return writeError(c, fiber.StatusBadGateway, CodeUpstream, upstreamErr.Error())
	default:
		report(c, err)
		slog.Error("request failed", "path", c.Path(), "error", err, "request_id", requestID(c))
		return writeError(c, fiber.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: message, Code: code})
}

func report(c *fiber.Ctx, err error) {
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// decodeStrict decodes a JSON body, rejecting unknown fields and trailing data.
func decodeStrict(c *fiber.Ctx, v interface{}) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return &services.ValidationError{Message: "request body is required"}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &services.ValidationError{Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &services.ValidationError{Message: "invalid request body: unexpected data after JSON object"}
	}
	return nil
}
