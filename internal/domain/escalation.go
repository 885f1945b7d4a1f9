package domain

import "time"

// EscalateType positions an escalation checkpoint relative to the SLA due date.
type EscalateType string

const (
	EscalateBefore EscalateType = "before"
	EscalateAfter  EscalateType = "after"
)

// EscalationLevel is one step of an SLA escalation plan.
type EscalationLevel struct {
	Level        int          `json:"level"`
	OffsetHours  float64      `json:"offset_hours"`
	EscalateType EscalateType `json:"escalate_type"`
	EscalateTo   []string     `json:"escalate_to,omitempty"`
}

// Checkpoint is the instant at which an escalation level fires.
type Checkpoint struct {
	Level        int          `json:"level"`
	EscalateType EscalateType `json:"escalate_type"`
	OffsetHours  float64      `json:"offset_hours"`
	EscalateTo   []string     `json:"escalate_to,omitempty"`
	At           time.Time    `json:"at"`
}
