package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/dto"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// SLAHandler exposes due-date calculations.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// DueDate POST /sla/due-date.
func (h *SLAHandler) DueDate(c *fiber.Ctx) error {
	var req dto.DueDateRequest
	if err := parseRequest(c, &req); err != nil {
		return err
	}
	input := service.DueDateInput{Start: req.Start, Options: req.Options()}
	if req.Duration != nil {
		input.Components = &service.DurationComponents{Days: req.Duration.Days, Hours: req.Duration.Hours, Minutes: req.Duration.Minutes}
	} else {
		input.DurationHours = *req.DurationHours
	}

	res, err := h.service.CalculateDueDate(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DueDateResponse{
		DueAt:               res.DueAt,
		DurationHours:       res.DurationHours,
		UseOperationalHours: res.Options.UseOperationalHours,
		IncludeHolidays:     res.Options.IncludeHolidays,
		FellBackToCalendar:  res.FellBackToCalendar,
	}})
}

// Checkpoints POST /sla/checkpoints.
func (h *SLAHandler) Checkpoints(c *fiber.Ctx) error {
	var req dto.CheckpointsRequest
	if err := parseRequest(c, &req); err != nil {
		return err
	}
	plan, err := h.service.CalculateEscalationCheckpoints(c.UserContext(), service.CheckpointsInput{
		Start:    req.Start,
		SLAHours: *req.SLAHours,
		Levels:   dto.ToDomainLevels(req.Levels),
		Options:  req.Options(),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": plan})
}

// Status POST /sla/status.
func (h *SLAHandler) Status(c *fiber.Ctx) error {
	var req dto.StatusRequest
	if err := parseRequest(c, &req); err != nil {
		return err
	}
	input := service.StatusInput{Start: req.Start, DurationHours: *req.DurationHours, Options: req.Options()}
	if req.Now != nil {
		input.Now = *req.Now
	}
	st, err := h.service.Status(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": st})
}

// Elapsed POST /sla/elapsed.
func (h *SLAHandler) Elapsed(c *fiber.Ctx) error {
	var req dto.ElapsedRequest
	if err := parseRequest(c, &req); err != nil {
		return err
	}
	minutes, err := h.service.Elapsed(c.UserContext(), req.From, req.To, req.Options())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ElapsedResponse{Minutes: minutes, Hours: float64(minutes) / 60}})
}

// Window GET /sla/window?date=YYYY-MM-DD.
func (h *SLAHandler) Window(c *fiber.Ctx) error {
	raw := c.Query("date")
	if raw == "" {
		return apperrors.NewValidationError("date query parameter required", map[string]any{"date": "required"})
	}
	date, err := domain.ParseCivilDate(raw)
	if err != nil {
		return apperrors.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": raw})
	}
	w, err := h.service.Window(c.UserContext(), date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"window":           w,
		"capacity_minutes": w.Capacity(),
	}})
}

// OperationalHours GET /operational-hours.
func (h *SLAHandler) OperationalHours(c *fiber.Ctx) error {
	summary, err := h.service.OperationalHours(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// RefreshOperationalHours POST /operational-hours/refresh.
func (h *SLAHandler) RefreshOperationalHours(c *fiber.Ctx) error {
	summary, err := h.service.RefreshOperationalHours(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

func parseRequest(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return apperrors.NewRequestValidationError(err)
	}
	return nil
}
