package handlers

import (
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BillingHandler struct {
	checkout     *services.CheckoutService
	cancellation *services.CancellationService
	payments     *services.PaymentService
	auth         *services.AuthService
	admins       middleware.AdminChecker
}

func NewBillingHandler(
	checkout *services.CheckoutService,
	cancellation *services.CancellationService,
	payments *services.PaymentService,
	auth *services.AuthService,
	admins middleware.AdminChecker,
) *BillingHandler {
	return &BillingHandler{
		checkout:     checkout,
		cancellation: cancellation,
		payments:     payments,
		auth:         auth,
		admins:       admins,
	}
}

// Checkout starts a subscription checkout. A valid bearer token attaches the
// session to that user; otherwise the buyer is treated as a guest.
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := decodeStrict(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := h.checkout.StartCheckout(c.UserContext(), services.CheckoutIntent{
		Plan:     req.Plan,
		Email:    req.Email,
		Caller:   h.optionalCaller(c),
		FormData: req.FormData,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.CheckoutResponse{
		SessionID:  result.Session.ID,
		URL:        result.Session.URL,
		ClaimToken: result.ClaimToken,
	})
}

// CancelSubscription cancels every subscription of the body's user. Only
// that user or an admin may call it.
func (h *BillingHandler) CancelSubscription(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	var req dto.CancelSubscriptionRequest
	if err := decodeStrict(c, &req); err != nil {
		return respondError(c, err)
	}
	target, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		return respondError(c, &services.ValidationError{Field: "userId", Message: "is required"})
	}

	if target != caller.UserID {
		isAdmin, err := h.admins.IsAdmin(c.UserContext(), *caller)
		if err != nil {
			return respondError(c, err)
		}
		if !isAdmin {
			return writeError(c, fiber.StatusForbidden, CodeForbidden, "You can only cancel your own subscription")
		}
	}

	if err := h.cancellation.CancelAll(c.UserContext(), target); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *BillingHandler) PaymentIntent(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	secret, err := h.payments.CreatePaymentIntent(c.UserContext(), *caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.PaymentIntentResponse{ClientSecret: secret})
}

func (h *BillingHandler) optionalCaller(c *fiber.Ctx) *services.Caller {
	header := c.Get(fiber.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	caller, err := h.auth.VerifyToken(c.UserContext(), strings.TrimSpace(raw))
	if err != nil {
		slog.Debug("ignoring unverifiable bearer token on checkout", "request_id", requestID(c))
		return nil
	}
	return caller
}
