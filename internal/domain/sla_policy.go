package domain

// SLAPolicy holds the default targets for a priority, in hours.
type SLAPolicy struct {
	Priority        TicketPriority `json:"priority"`
	ResponseHours   float64        `json:"response_hours"`
	ResolutionHours float64        `json:"resolution_hours"`
	EscalationHours float64        `json:"escalation_hours"`
	AutoEscalate    bool           `json:"auto_escalate"`
}

var defaultPolicies = map[TicketPriority]SLAPolicy{
	TicketPriorityUrgent: {Priority: TicketPriorityUrgent, ResponseHours: 4, ResolutionHours: 24, EscalationHours: 2, AutoEscalate: true},
	TicketPriorityHigh:   {Priority: TicketPriorityHigh, ResponseHours: 8, ResolutionHours: 72, EscalationHours: 4, AutoEscalate: true},
	TicketPriorityMedium: {Priority: TicketPriorityMedium, ResponseHours: 24, ResolutionHours: 168, EscalationHours: 12, AutoEscalate: true},
	TicketPriorityLow:    {Priority: TicketPriorityLow, ResponseHours: 48, ResolutionHours: 336, EscalationHours: 24, AutoEscalate: false},
}

// DefaultSLAPolicy returns the built-in policy for priority.
func DefaultSLAPolicy(priority TicketPriority) (SLAPolicy, bool) {
	p, ok := defaultPolicies[priority]
	return p, ok
}

// EscalationLevels expands the policy into a plan: level 1 fires EscalationHours into the
// resolution window, level 2 when the resolution target is breached. Policies without
// auto-escalation have no plan.
func (p SLAPolicy) EscalationLevels() []EscalationLevel {
	if !p.AutoEscalate {
		return nil
	}
	levels := make([]EscalationLevel, 0, 2)
	if p.EscalationHours > 0 && p.EscalationHours < p.ResolutionHours {
		levels = append(levels, EscalationLevel{
			Level:        1,
			OffsetHours:  p.ResolutionHours - p.EscalationHours,
			EscalateType: EscalateBefore,
			EscalateTo:   []string{string(StaffRoleTeamLead)},
		})
	}
	levels = append(levels, EscalationLevel{
		Level:        len(levels) + 1,
		OffsetHours:  0,
		EscalateType: EscalateAfter,
		EscalateTo:   []string{string(StaffRoleAdmin)},
	})
	return levels
}
