package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusCancelled   TicketStatus = "CANCELLED"
)

// IsOpen reports whether the SLA clock is still relevant for the status.
func (s TicketStatus) IsOpen() bool {
	switch s {
	case TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return false
	default:
		return true
	}
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// TicketSLA is the SLA stamped on a ticket: when the clock started, how it accrues, the due
// date and the escalation plan the monitoring job works through.
type TicketSLA struct {
	TicketID            string
	Priority            TicketPriority
	Status              TicketStatus
	StartedAt           time.Time
	SLAHours            float64
	UseOperationalHours bool
	IncludeHolidays     bool
	DueAt               time.Time
	Levels              []EscalationLevel
	NotifiedLevel       int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// MaxLevel is the highest escalation level in the plan, 0 without levels.
func (t TicketSLA) MaxLevel() int {
	highest := 0
	for _, lvl := range t.Levels {
		if lvl.Level > highest {
			highest = lvl.Level
		}
	}
	return highest
}

// HasPendingEscalation reports whether the ticket is open and some level has not been notified.
func (t TicketSLA) HasPendingEscalation() bool {
	return t.Status.IsOpen() && t.NotifiedLevel < t.MaxLevel()
}
