package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSLADueDateSet          EventType = "sla_due_date_set"
	EventSLAEscalationTriggered EventType = "sla_escalation_triggered"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	StaffID *string            `json:"staff_id,omitempty"`
}

// SystemActor marks events raised by background jobs.
var SystemActor = Actor{Type: domain.SubjectTypeSystem}

// StaffActor attributes an event to a staff member.
func StaffActor(staffID string) Actor {
	return Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps a fresh ID and timestamp.
func NewEvent(eventType EventType, ticketID string, actor Actor, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// SLADueDateSetPayload payload.
type SLADueDateSetPayload struct {
	Priority            domain.TicketPriority `json:"priority"`
	StartedAt           time.Time             `json:"started_at"`
	SLAHours            float64               `json:"sla_hours"`
	UseOperationalHours bool                  `json:"use_operational_hours"`
	DueAt               time.Time             `json:"due_at"`
	Checkpoints         []domain.Checkpoint   `json:"checkpoints"`
}

// SLAEscalationTriggeredPayload payload.
type SLAEscalationTriggeredPayload struct {
	Level        int                 `json:"level"`
	EscalateType domain.EscalateType `json:"escalate_type"`
	EscalateTo   []string            `json:"escalate_to,omitempty"`
	CheckpointAt time.Time           `json:"checkpoint_at"`
	DueAt        time.Time           `json:"due_at"`
	Breached     bool                `json:"breached"`
}
