package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/events"
)

// ErrWebhookRejected is returned when the webhook endpoint answers with a non-2xx status.
var ErrWebhookRejected = errors.New("webhook rejected notification")

// EscalationNotice is the message composed for each escalation recipient.
type EscalationNotice struct {
	From    string
	To      string
	Subject string
	Body    string
}

type webhookEnvelope struct {
	EventID    string           `json:"event_id"`
	EventType  events.EventType `json:"event_type"`
	TicketID   string           `json:"ticket_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Payload    interface{}      `json:"payload"`
}

// NotificationService turns SLA events into escalation notices and webhook calls.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSLADueDateSet, n.handleDueDateSet)
	n.dispatcher.Subscribe(events.EventSLAEscalationTriggered, n.handleEscalationTriggered)
}

func (n *NotificationService) handleDueDateSet(ctx context.Context, event events.Event) error {
	n.logger.Info("sla due date set", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.postWebhook(ctx, event)
}

func (n *NotificationService) handleEscalationTriggered(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.SLAEscalationTriggeredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("sla escalation triggered",
		zap.String("ticket_id", event.TicketID),
		zap.Int("level", p.Level),
		zap.Strings("escalate_to", p.EscalateTo),
		zap.Bool("breached", p.Breached))

	for _, notice := range ComposeEscalationNotices(n.cfg.EmailFrom, event.TicketID, p) {
		n.logger.Debug("escalation notice",
			zap.String("from", notice.From),
			zap.String("to", notice.To),
			zap.String("subject", notice.Subject))
	}
	return n.postWebhook(ctx, event)
}

// ComposeEscalationNotices builds one notice per recipient. Blank recipients are skipped and no
// notices are built without a sender address.
func ComposeEscalationNotices(from, ticketID string, p events.SLAEscalationTriggeredPayload) []EscalationNotice {
	from = strings.TrimSpace(from)
	if from == "" {
		return nil
	}

	subject := fmt.Sprintf("[SLA] Ticket %s escalation level %d", ticketID, p.Level)
	if p.Breached {
		subject = fmt.Sprintf("[SLA BREACHED] Ticket %s escalation level %d", ticketID, p.Level)
	}
	body := fmt.Sprintf("Ticket %s reached escalation level %d (%s, checkpoint %s).\nResolution due at %s.\n",
		ticketID, p.Level, p.EscalateType,
		p.CheckpointAt.UTC().Format(time.RFC3339), p.DueAt.UTC().Format(time.RFC3339))

	notices := make([]EscalationNotice, 0, len(p.EscalateTo))
	for _, to := range p.EscalateTo {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		notices = append(notices, EscalationNotice{From: from, To: to, Subject: subject, Body: body})
	}
	return notices
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}

	timeout := time.Duration(n.cfg.WebhookTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(url).
		JSON(webhookEnvelope{
			EventID:    event.ID,
			EventType:  event.Type,
			TicketID:   event.TicketID,
			OccurredAt: event.Timestamp,
			Payload:    event.Payload,
		}).
		Timeout(timeout)
	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("post webhook %s: %w", event.Type, errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("%w: %s returned %d", ErrWebhookRejected, event.Type, code)
	}
	n.logger.Debug("webhook delivered", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID))
	return nil
}
