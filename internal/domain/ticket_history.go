package domain

import "time"

// SLAChangeType captures what happened to a ticket's SLA in a history entry.
type SLAChangeType string

const (
	SLAChangeDueDateSet SLAChangeType = "SLA_DUE_DATE_SET"
	SLAChangeEscalated  SLAChangeType = "SLA_ESCALATED"
)

// TicketSLAHistory is an immutable audit trail entry for a ticket's SLA.
type TicketSLAHistory struct {
	ID            string         `json:"id"`
	TicketID      string         `json:"ticket_id"`
	ChangedByType SubjectType    `json:"changed_by_type"`
	ChangedByID   *string        `json:"changed_by_id,omitempty"`
	ChangeType    SLAChangeType  `json:"change_type"`
	Details       map[string]any `json:"details"`
	CreatedAt     time.Time      `json:"created_at"`
}
