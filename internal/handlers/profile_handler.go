package handlers

import (
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	gate     *services.AccessGate
}

func NewProfileHandler(profiles *services.ProfileService, gate *services.AccessGate) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, gate: gate}
}

// GetProfile returns the caller's profile, creating it on first access.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	profile, err := h.profiles.EnsureProfile(c.UserContext(), caller.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) Access(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	decision, err := h.gate.CanAccess(c.UserContext(), *caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AccessResponse{Allow: decision.Allow, Reason: decision.Reason})
}
