package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

// SLAHistoryService keeps an audit trail of SLA events per ticket.
type SLAHistoryService struct {
	dispatcher events.Dispatcher
	repo       repository.TicketSLAHistoryRepository
	logger     *zap.Logger
}

// NewSLAHistoryService creates the service. Without a repository nothing is recorded.
func NewSLAHistoryService(dispatcher events.Dispatcher, repo repository.TicketSLAHistoryRepository, logger *zap.Logger) *SLAHistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAHistoryService{dispatcher: dispatcher, repo: repo, logger: logger}
}

// RegisterHandlers subscribes to events.
func (h *SLAHistoryService) RegisterHandlers() {
	if h.dispatcher == nil || h.repo == nil {
		return
	}
	h.dispatcher.Subscribe(events.EventSLADueDateSet, h.handle)
	h.dispatcher.Subscribe(events.EventSLAEscalationTriggered, h.handle)
}

// List returns the ticket's SLA history, oldest first.
func (h *SLAHistoryService) List(ctx context.Context, ticketID string) ([]domain.TicketSLAHistory, error) {
	if h.repo == nil {
		return nil, errors.New("ticket SLA history storage not configured")
	}
	return h.repo.ListByTicket(ctx, ticketID)
}

func (h *SLAHistoryService) handle(ctx context.Context, event events.Event) error {
	var change domain.SLAChangeType
	switch event.Type {
	case events.EventSLADueDateSet:
		change = domain.SLAChangeDueDateSet
	case events.EventSLAEscalationTriggered:
		change = domain.SLAChangeEscalated
	default:
		return nil
	}

	details, err := payloadMap(event.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.Type, err)
	}
	entry := &domain.TicketSLAHistory{
		TicketID:      event.TicketID,
		ChangedByType: event.Actor.Type,
		ChangedByID:   event.Actor.StaffID,
		ChangeType:    change,
		Details:       details,
	}
	if err := h.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("record sla history: %w", err)
	}
	h.logger.Debug("sla history recorded", zap.String("ticket_id", entry.TicketID), zap.String("change_type", string(change)))
	return nil
}

func payloadMap(payload any) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
