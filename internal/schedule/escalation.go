package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// Plan is an SLA due date together with its escalation checkpoints in level order.
type Plan struct {
	DueAt       time.Time           `json:"due_at"`
	Checkpoints []domain.Checkpoint `json:"checkpoints"`
}

// EscalationScheduler derives escalation checkpoints from the due-date calculator.
type EscalationScheduler struct {
	calc *Calculator
}

// NewEscalationScheduler wraps calc.
func NewEscalationScheduler(calc *Calculator) *EscalationScheduler {
	return &EscalationScheduler{calc: calc}
}

type resolvedLevel struct {
	level   domain.EscalationLevel
	hours   decimal.Decimal
	minutes int
}

// Checkpoints computes the due date and one checkpoint per level. Every checkpoint is a single
// calculation from start: "before" levels accrue slaHours minus the offset, "after" levels
// slaHours plus the offset. Levels are validated before anything is calculated.
func (s *EscalationScheduler) Checkpoints(snap *Snapshot, start time.Time, slaHours float64, levels []domain.EscalationLevel, opts Options) (Plan, error) {
	sla, err := HoursDecimal(slaHours)
	if err != nil {
		return Plan{}, err
	}
	resolved, err := resolveLevels(sla, levels)
	if err != nil {
		return Plan{}, err
	}

	due, err := s.calc.dueDate(snap, start, sla, opts)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{DueAt: due, Checkpoints: make([]domain.Checkpoint, 0, len(resolved))}
	for _, rl := range resolved {
		at, err := s.calc.dueDate(snap, start, rl.hours, opts)
		if err != nil {
			return Plan{}, fmt.Errorf("escalation level %d: %w", rl.level.Level, err)
		}
		if n := len(plan.Checkpoints); n > 0 && !at.After(plan.Checkpoints[n-1].At) {
			return Plan{}, fmt.Errorf("%w: level %d fires at %s, not after level %d",
				ErrInvalidEscalationLevels, rl.level.Level, at.Format(time.RFC3339), plan.Checkpoints[n-1].Level)
		}
		plan.Checkpoints = append(plan.Checkpoints, domain.Checkpoint{
			Level:        rl.level.Level,
			EscalateType: rl.level.EscalateType,
			OffsetHours:  rl.level.OffsetHours,
			EscalateTo:   append([]string(nil), rl.level.EscalateTo...),
			At:           at,
		})
	}
	return plan, nil
}

// ValidateLevels checks level definitions against an SLA duration without calculating.
func ValidateLevels(slaHours float64, levels []domain.EscalationLevel) error {
	sla, err := HoursDecimal(slaHours)
	if err != nil {
		return err
	}
	_, err = resolveLevels(sla, levels)
	return err
}

func resolveLevels(sla decimal.Decimal, levels []domain.EscalationLevel) ([]resolvedLevel, error) {
	ordered := append([]domain.EscalationLevel(nil), levels...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Level < ordered[j].Level })

	out := make([]resolvedLevel, 0, len(ordered))
	for i, lvl := range ordered {
		if i > 0 && lvl.Level == ordered[i-1].Level {
			return nil, fmt.Errorf("%w: duplicate level %d", ErrInvalidEscalationLevels, lvl.Level)
		}
		offset, err := HoursDecimal(lvl.OffsetHours)
		if err != nil {
			return nil, fmt.Errorf("%w: level %d offset: %v", ErrInvalidEscalationLevels, lvl.Level, err)
		}

		var hours decimal.Decimal
		switch lvl.EscalateType {
		case domain.EscalateBefore:
			if offset.GreaterThan(sla) {
				return nil, fmt.Errorf("%w: level %d fires %s hours before a %s hour SLA starts",
					ErrInvalidEscalationLevels, lvl.Level, offset, sla)
			}
			hours = sla.Sub(offset)
		case domain.EscalateAfter:
			hours = sla.Add(offset)
		default:
			return nil, fmt.Errorf("%w: level %d has unknown escalate type %q",
				ErrInvalidEscalationLevels, lvl.Level, lvl.EscalateType)
		}
		if hours, err = checkHours(hours); err != nil {
			return nil, fmt.Errorf("%w: level %d: %v", ErrInvalidEscalationLevels, lvl.Level, err)
		}

		rl := resolvedLevel{level: lvl, hours: hours, minutes: MinutesFromHours(hours)}
		if n := len(out); n > 0 && rl.minutes <= out[n-1].minutes {
			return nil, fmt.Errorf("%w: level %d must fire after level %d",
				ErrInvalidEscalationLevels, lvl.Level, out[n-1].level.Level)
		}
		out = append(out, rl)
	}
	return out, nil
}
