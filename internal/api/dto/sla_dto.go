package dto

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/schedule"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a request payload against its validate tags.
func Validate(req any) error {
	return validate.Struct(req)
}

// CalculationOptions selects the accrual mode. Operational hours are used unless disabled.
type CalculationOptions struct {
	UseOperationalHours *bool `json:"use_operational_hours"`
	IncludeHolidays     bool  `json:"include_holidays"`
}

// Options converts to calculator options.
func (o CalculationOptions) Options() schedule.Options {
	use := true
	if o.UseOperationalHours != nil {
		use = *o.UseOperationalHours
	}
	return schedule.Options{UseOperationalHours: use, IncludeHolidays: o.IncludeHolidays}
}

// DurationComponents payload.
type DurationComponents struct {
	Days    int `json:"days" validate:"gte=0"`
	Hours   int `json:"hours" validate:"gte=0"`
	Minutes int `json:"minutes" validate:"gte=0"`
}

// DueDateRequest payload. Exactly one of duration_hours or duration is expected.
type DueDateRequest struct {
	Start         time.Time           `json:"start" validate:"required"`
	DurationHours *float64            `json:"duration_hours" validate:"required_without=Duration,excluded_with=Duration,omitempty,gte=0"`
	Duration      *DurationComponents `json:"duration" validate:"required_without=DurationHours,omitempty"`
	CalculationOptions
}

// DueDateResponse response.
type DueDateResponse struct {
	DueAt               time.Time `json:"due_at"`
	DurationHours       float64   `json:"duration_hours"`
	UseOperationalHours bool      `json:"use_operational_hours"`
	IncludeHolidays     bool      `json:"include_holidays"`
	FellBackToCalendar  bool      `json:"fell_back_to_calendar,omitempty"`
}

// EscalationLevel payload.
type EscalationLevel struct {
	Level        int      `json:"level" validate:"gte=1"`
	OffsetHours  float64  `json:"offset_hours" validate:"gte=0"`
	EscalateType string   `json:"escalate_type" validate:"oneof=before after"`
	EscalateTo   []string `json:"escalate_to" validate:"omitempty,dive,required"`
}

// ToDomainLevels converts level payloads, keeping nil distinct from empty.
func ToDomainLevels(levels []EscalationLevel) []domain.EscalationLevel {
	if levels == nil {
		return nil
	}
	out := make([]domain.EscalationLevel, 0, len(levels))
	for _, l := range levels {
		out = append(out, domain.EscalationLevel{
			Level:        l.Level,
			OffsetHours:  l.OffsetHours,
			EscalateType: domain.EscalateType(l.EscalateType),
			EscalateTo:   l.EscalateTo,
		})
	}
	return out
}

// CheckpointsRequest payload.
type CheckpointsRequest struct {
	Start    time.Time         `json:"start" validate:"required"`
	SLAHours *float64          `json:"sla_hours" validate:"required,gte=0"`
	Levels   []EscalationLevel `json:"levels" validate:"dive"`
	CalculationOptions
}

// StatusRequest payload. now defaults to the server clock.
type StatusRequest struct {
	Start         time.Time  `json:"start" validate:"required"`
	DurationHours *float64   `json:"duration_hours" validate:"required,gte=0"`
	Now           *time.Time `json:"now"`
	CalculationOptions
}

// ElapsedRequest payload.
type ElapsedRequest struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required"`
	CalculationOptions
}

// ElapsedResponse response.
type ElapsedResponse struct {
	Minutes int     `json:"minutes"`
	Hours   float64 `json:"hours"`
}

// StampTicketSLARequest payload. Omitted sla_hours or levels take the priority defaults; an
// empty levels list disables escalation.
type StampTicketSLARequest struct {
	Priority  domain.TicketPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Status    domain.TicketStatus   `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS PENDING_USER RESOLVED CLOSED CANCELLED"`
	StartedAt *time.Time            `json:"started_at"`
	SLAHours  *float64              `json:"sla_hours" validate:"omitempty,gte=0"`
	Levels    []EscalationLevel     `json:"levels" validate:"omitempty,dive"`
	CalculationOptions
}

// TicketSLAResponse response.
type TicketSLAResponse struct {
	TicketID            string                `json:"ticket_id"`
	Priority            domain.TicketPriority `json:"priority"`
	Status              domain.TicketStatus   `json:"status"`
	StartedAt           time.Time             `json:"started_at"`
	SLAHours            float64               `json:"sla_hours"`
	UseOperationalHours bool                  `json:"use_operational_hours"`
	IncludeHolidays     bool                  `json:"include_holidays"`
	DueAt               time.Time             `json:"due_at"`
	Checkpoints         []domain.Checkpoint   `json:"checkpoints,omitempty"`
	Levels              []EscalationLevel     `json:"levels,omitempty"`
	NotifiedLevel       int                   `json:"notified_level"`
	SLAStatus           *schedule.Status      `json:"sla_status,omitempty"`
}

// FromDomainLevels converts stored levels to their payload form.
func FromDomainLevels(levels []domain.EscalationLevel) []EscalationLevel {
	out := make([]EscalationLevel, 0, len(levels))
	for _, l := range levels {
		out = append(out, EscalationLevel{
			Level:        l.Level,
			OffsetHours:  l.OffsetHours,
			EscalateType: string(l.EscalateType),
			EscalateTo:   l.EscalateTo,
		})
	}
	return out
}
