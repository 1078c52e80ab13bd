package handlers

import (
	"strconv"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AdminHandler serves the submission review panel.
type AdminHandler struct {
	submissions *services.SubmissionService
}

func NewAdminHandler(submissions *services.SubmissionService) *AdminHandler {
	return &AdminHandler{submissions: submissions}
}

func (h *AdminHandler) ListSubmissions(c *fiber.Ctx) error {
	status := c.Query("status", services.FilterAll)
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	resp, err := h.submissions.List(c.UserContext(), status, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AdminHandler) Counts(c *fiber.Ctx) error {
	resp, err := h.submissions.Counts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AdminHandler) Approve(c *fiber.Ctx) error {
	id, err := submissionID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req dto.ApproveSubmissionRequest
	if err := decodeStrict(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.ActualPullUpCount == nil {
		return respondError(c, &services.ValidationError{Field: "actual_pull_up_count", Message: "is required"})
	}

	reviewer := middleware.Caller(c).UserID
	if err := h.submissions.Approve(c.UserContext(), id, *req.ActualPullUpCount, reviewer); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *AdminHandler) Reject(c *fiber.Ctx) error {
	id, err := submissionID(c)
	if err != nil {
		return respondError(c, err)
	}

	reviewer := middleware.Caller(c).UserID
	if err := h.submissions.Reject(c.UserContext(), id, reviewer); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func submissionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, &services.ValidationError{Field: "id", Message: "is not a valid submission id"}
	}
	return id, nil
}
