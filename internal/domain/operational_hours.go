package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WorkingTimeMode selects how the weekly calendar is interpreted.
type WorkingTimeMode string

const (
	ModeStandard      WorkingTimeMode = "standard"
	ModeCustomPerDay  WorkingTimeMode = "custom-per-day"
	ModeRoundTheClock WorkingTimeMode = "round-the-clock"
)

// ScheduleType controls where a working day takes its hours from.
type ScheduleType string

const (
	ScheduleStandard ScheduleType = "standard"
	ScheduleCustom   ScheduleType = "custom"
	ScheduleNotSet   ScheduleType = "not-set"
)

// MinutesPerDay is the length of a civil day in minutes.
const MinutesPerDay = 24 * 60

// TimeOfDay is a wall-clock offset in whole minutes since midnight. 1440 denotes end of day.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM". "24:00" is accepted as end of day.
func ParseTimeOfDay(val string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(val), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", val)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", val, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", val, err)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || hours > 24 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("time of day %q out of range", val)
	}
	return TimeOfDay(hours*60 + minutes), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals.
func MustTimeOfDay(val string) TimeOfDay {
	tod, err := ParseTimeOfDay(val)
	if err != nil {
		panic(err)
	}
	return tod
}

// String formats as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// BreakInterval is a pause inside a working day during which SLA time does not accrue.
type BreakInterval struct {
	ID    int64     `json:"id,omitempty" yaml:"id,omitempty"`
	Start TimeOfDay `json:"start" yaml:"start"`
	End   TimeOfDay `json:"end" yaml:"end"`
}

// Minutes returns the interval length; reversed intervals report a negative value.
func (b BreakInterval) Minutes() int {
	return int(b.End) - int(b.Start)
}

// WorkingDay configures one weekday.
type WorkingDay struct {
	ID           int64           `json:"id,omitempty" yaml:"id,omitempty"`
	DayOfWeek    time.Weekday    `json:"day_of_week" yaml:"day_of_week"`
	Enabled      bool            `json:"enabled" yaml:"enabled"`
	ScheduleType ScheduleType    `json:"schedule_type" yaml:"schedule_type"`
	CustomStart  *TimeOfDay      `json:"custom_start,omitempty" yaml:"custom_start,omitempty"`
	CustomEnd    *TimeOfDay      `json:"custom_end,omitempty" yaml:"custom_end,omitempty"`
	Breaks       []BreakInterval `json:"breaks" yaml:"breaks"`
}

// ExclusionKind distinguishes fixed dates from recurring weekday patterns.
type ExclusionKind string

const (
	ExclusionDate    ExclusionKind = "date"
	ExclusionWeekday ExclusionKind = "weekday"
)

// LastWeekOfMonth selects the final occurrence of a weekday in a month.
const LastWeekOfMonth = -1

// ExclusionRule marks matching dates as wholly non-working.
type ExclusionRule struct {
	ID          int64         `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	Kind        ExclusionKind `json:"kind" yaml:"kind"`
	Date        *CivilDate    `json:"date,omitempty" yaml:"date,omitempty"`
	RecurYearly bool          `json:"recur_yearly,omitempty" yaml:"recur_yearly,omitempty"`
	Weekday     *time.Weekday `json:"weekday,omitempty" yaml:"weekday,omitempty"`
	// Weeks holds week-of-month ordinals 1..5 or LastWeekOfMonth; empty means every week.
	Weeks []int `json:"weeks,omitempty" yaml:"weeks,omitempty"`
	// Months empty means every month.
	Months []time.Month `json:"months,omitempty" yaml:"months,omitempty"`
}

// Holiday is a named non-working date maintained by administrators.
type Holiday struct {
	ID          int64
	Name        string
	Date        CivilDate
	IsRecurring bool
	IsActive    bool
}

// ExclusionRule converts the holiday into the predicate form used by the calendar.
func (h Holiday) ExclusionRule() ExclusionRule {
	date := h.Date
	return ExclusionRule{
		ID:          h.ID,
		Name:        h.Name,
		Kind:        ExclusionDate,
		Date:        &date,
		RecurYearly: h.IsRecurring,
	}
}

// OperationalHoursConfig is the aggregate describing the business calendar.
type OperationalHoursConfig struct {
	ID                 int64           `json:"id" yaml:"id"`
	Mode               WorkingTimeMode `json:"mode" yaml:"mode"`
	StandardStart      TimeOfDay       `json:"standard_start" yaml:"standard_start"`
	StandardEnd        TimeOfDay       `json:"standard_end" yaml:"standard_end"`
	StandardBreakStart *TimeOfDay      `json:"standard_break_start,omitempty" yaml:"standard_break_start,omitempty"`
	StandardBreakEnd   *TimeOfDay      `json:"standard_break_end,omitempty" yaml:"standard_break_end,omitempty"`
	IsActive           bool            `json:"is_active" yaml:"is_active"`
	WorkingDays        []WorkingDay    `json:"working_days" yaml:"working_days"`
	ExclusionRules     []ExclusionRule `json:"exclusion_rules" yaml:"exclusion_rules"`
	UpdatedAt          time.Time       `json:"updated_at" yaml:"-"`
}
