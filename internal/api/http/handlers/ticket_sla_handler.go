package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/dto"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// TicketSLAHandler stamps and reads SLAs on tickets.
type TicketSLAHandler struct {
	service *service.SLAService
	history *service.SLAHistoryService
}

// NewTicketSLAHandler constructs handler.
func NewTicketSLAHandler(slaService *service.SLAService, history *service.SLAHistoryService) *TicketSLAHandler {
	return &TicketSLAHandler{service: slaService, history: history}
}

// Stamp PUT /tickets/:id/sla.
func (h *TicketSLAHandler) Stamp(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.StampTicketSLARequest
	if err := parseRequest(c, &req); err != nil {
		return err
	}

	input := service.StampInput{
		TicketID: ticketID,
		Priority: req.Priority,
		Status:   req.Status,
		SLAHours: req.SLAHours,
		Levels:   dto.ToDomainLevels(req.Levels),
		Options:  req.Options(),
	}
	if req.StartedAt != nil {
		input.StartedAt = *req.StartedAt
	}

	record, plan, err := h.service.StampTicketSLA(c.UserContext(), events.StaffActor(principal.SubjectID), input)
	if err != nil {
		return err
	}
	resp := ticketSLAResponse(record)
	resp.Checkpoints = plan.Checkpoints
	return c.JSON(fiber.Map{"data": resp})
}

// Get GET /tickets/:id/sla.
func (h *TicketSLAHandler) Get(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	record, status, err := h.service.TicketSLA(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	resp := ticketSLAResponse(record)
	resp.Levels = dto.FromDomainLevels(record.Levels)
	if record.Status.IsOpen() {
		resp.SLAStatus = &status
	}
	return c.JSON(fiber.Map{"data": resp})
}

// History GET /tickets/:id/sla/history.
func (h *TicketSLAHandler) History(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	entries, err := h.history.List(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

func ticketIDParam(c *fiber.Ctx) (string, error) {
	ticketID := strings.TrimSpace(c.Params("id"))
	if ticketID == "" {
		return "", apperrors.NewValidationError("ticket id required", nil)
	}
	return ticketID, nil
}

func ticketSLAResponse(record *domain.TicketSLA) dto.TicketSLAResponse {
	return dto.TicketSLAResponse{
		TicketID:            record.TicketID,
		Priority:            record.Priority,
		Status:              record.Status,
		StartedAt:           record.StartedAt,
		SLAHours:            record.SLAHours,
		UseOperationalHours: record.UseOperationalHours,
		IncludeHolidays:     record.IncludeHolidays,
		DueAt:               record.DueAt,
		NotifiedLevel:       record.NotifiedLevel,
	}
}
