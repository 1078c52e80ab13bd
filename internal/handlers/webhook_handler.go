package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// EventParser verifies and decodes a signed billing webhook payload.
type EventParser interface {
	ParseEvent(payload []byte, signature string) (*billing.Event, error)
}

type WebhookHandler struct {
	parser              EventParser
	subscriptionService *services.SubscriptionService
}

func NewWebhookHandler(parser EventParser, subscriptionService *services.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{parser: parser, subscriptionService: subscriptionService}
}

// HandleStripe acknowledges verified events. Processing failures return 500
// so the provider redelivers.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	event, err := h.parser.ParseEvent(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		slog.Warn("webhook rejected", "error", err, "request_id", requestID(c))
		return writeError(c, fiber.StatusBadRequest, CodeValidation, "Invalid webhook signature")
	}

	if err := h.subscriptionService.HandleEvent(c.UserContext(), event); err != nil {
		slog.Error("webhook processing failed", "event_id", event.ID, "event_type", event.Type, "error", err, "operation", "billing_webhook")
		return writeError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to process webhook event")
	}

	slog.Info("webhook processed", "event_id", event.ID, "event_type", event.Type)
	return c.JSON(fiber.Map{"received": true})
}
