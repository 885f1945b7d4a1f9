package schedule

import "errors"

var (
	// ErrUnsatisfiableSchedule means no working time was found within the lookahead bound.
	ErrUnsatisfiableSchedule = errors.New("no working time within lookahead window")
	// ErrInvalidDuration rejects negative, NaN, infinite or oversized durations.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidEscalationLevels rejects level definitions that would fire out of order.
	ErrInvalidEscalationLevels = errors.New("invalid escalation levels")
	// ErrInvalidBreakDefinition marks a break that was excluded from the calendar.
	ErrInvalidBreakDefinition = errors.New("invalid break definition")
)
