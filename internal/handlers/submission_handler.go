package handlers

import (
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SubmissionHandler struct {
	submissions *services.SubmissionService
	cooldown    *services.CooldownGuard
}

func NewSubmissionHandler(submissions *services.SubmissionService, cooldown *services.CooldownGuard) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, cooldown: cooldown}
}

func (h *SubmissionHandler) Eligibility(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	result, err := h.cooldown.CanSubmit(c.UserContext(), caller.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *SubmissionHandler) Create(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	var req dto.CreateSubmissionRequest
	if err := decodeStrict(c, &req); err != nil {
		return respondError(c, err)
	}

	submission, err := h.submissions.Submit(c.UserContext(), caller.UserID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(submission)
}

func (h *SubmissionHandler) Mine(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	views, err := h.submissions.ListMine(c.UserContext(), caller.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"submissions": views})
}
