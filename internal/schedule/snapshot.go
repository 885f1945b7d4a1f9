package schedule

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// Interval is a half-open [Start, End) range of minutes within a day.
type Interval struct {
	Start domain.TimeOfDay `json:"start"`
	End   domain.TimeOfDay `json:"end"`
}

// Minutes returns the interval length.
func (i Interval) Minutes() int {
	return int(i.End) - int(i.Start)
}

// Issue records a configuration defect that was neutralised while building a snapshot.
type Issue struct {
	Weekday time.Weekday `json:"weekday"`
	Reason  string       `json:"reason"`
}

type dayTemplate struct {
	working bool
	reason  string
	start   domain.TimeOfDay
	end     domain.TimeOfDay
	breaks  []Interval
}

// Snapshot is an immutable, validated view of one operational-hours configuration.
// It is safe for concurrent use.
type Snapshot struct {
	configID  int64
	mode      domain.WorkingTimeMode
	loc       *time.Location
	days      [7]dayTemplate
	rules     []domain.ExclusionRule
	issues    []Issue
	updatedAt time.Time
}

// NewSnapshot copies and validates cfg. Invalid breaks and day windows are excluded with a
// warning rather than failing the snapshot.
func NewSnapshot(cfg *domain.OperationalHoursConfig, loc *time.Location, logger *zap.Logger) (*Snapshot, error) {
	if cfg == nil {
		return nil, domain.ErrConfigurationMissing
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mode := cfg.Mode
	if mode == "" {
		mode = domain.ModeStandard
	}
	snap := &Snapshot{
		configID:  cfg.ID,
		mode:      mode,
		loc:       loc,
		rules:     copyRules(cfg.ExclusionRules),
		updatedAt: cfg.UpdatedAt,
	}

	if mode == domain.ModeRoundTheClock {
		for wd := range snap.days {
			snap.days[wd] = fullDay()
		}
		return snap, nil
	}

	for wd := range snap.days {
		snap.days[wd] = dayTemplate{reason: "weekday not configured"}
	}
	for _, day := range cfg.WorkingDays {
		if day.DayOfWeek < time.Sunday || day.DayOfWeek > time.Saturday {
			snap.warn(logger, day.DayOfWeek, fmt.Sprintf("weekday index %d out of range", int(day.DayOfWeek)))
			continue
		}
		snap.days[day.DayOfWeek] = snap.buildDay(cfg, day, logger)
	}
	return snap, nil
}

// AroundTheClock returns a snapshot in which every date not matched by rules is fully working.
func AroundTheClock(rules []domain.ExclusionRule, loc *time.Location) *Snapshot {
	if loc == nil {
		loc = time.UTC
	}
	snap := &Snapshot{mode: domain.ModeRoundTheClock, loc: loc, rules: copyRules(rules)}
	for wd := range snap.days {
		snap.days[wd] = fullDay()
	}
	return snap
}

// AroundTheClock derives a 24-hour calendar that keeps this snapshot's exclusion rules.
func (s *Snapshot) AroundTheClock() *Snapshot {
	derived := AroundTheClock(s.rules, s.loc)
	derived.configID = s.configID
	derived.updatedAt = s.updatedAt
	return derived
}

// WithoutExclusions returns the weekly template alone, ignoring exclusion rules.
func (s *Snapshot) WithoutExclusions() *Snapshot {
	derived := *s
	derived.rules = nil
	return &derived
}

func fullDay() dayTemplate {
	return dayTemplate{working: true, start: 0, end: domain.MinutesPerDay}
}

func (s *Snapshot) buildDay(cfg *domain.OperationalHoursConfig, day domain.WorkingDay, logger *zap.Logger) dayTemplate {
	if !day.Enabled {
		return dayTemplate{reason: "weekday disabled"}
	}
	start, end := cfg.StandardStart, cfg.StandardEnd
	switch day.ScheduleType {
	case domain.ScheduleNotSet, "":
		return dayTemplate{reason: "schedule not set"}
	case domain.ScheduleCustom:
		if day.CustomStart != nil && day.CustomEnd != nil {
			start, end = *day.CustomStart, *day.CustomEnd
		} else {
			s.warn(logger, day.DayOfWeek, "custom schedule without start/end, using standard hours")
		}
	case domain.ScheduleStandard:
	default:
		s.warn(logger, day.DayOfWeek, fmt.Sprintf("unknown schedule type %q", day.ScheduleType))
		return dayTemplate{reason: "unknown schedule type"}
	}

	if start < 0 || end > domain.MinutesPerDay || end <= start {
		s.warn(logger, day.DayOfWeek, fmt.Sprintf("working window %s-%s is empty or reversed", start, end))
		return dayTemplate{reason: "invalid working window"}
	}

	return dayTemplate{
		working: true,
		start:   start,
		end:     end,
		breaks:  s.normaliseBreaks(day, start, end, logger),
	}
}

// normaliseBreaks drops invalid breaks and merges overlapping ones so capacity arithmetic never
// subtracts a minute twice. The result is sorted by start.
func (s *Snapshot) normaliseBreaks(day domain.WorkingDay, start, end domain.TimeOfDay, logger *zap.Logger) []Interval {
	valid := make([]Interval, 0, len(day.Breaks))
	for _, br := range day.Breaks {
		switch {
		case br.End <= br.Start:
			s.warnBreak(logger, day.DayOfWeek, br, "reversed or zero-length")
		case br.Start < start || br.End > end:
			s.warnBreak(logger, day.DayOfWeek, br, fmt.Sprintf("outside working window %s-%s", start, end))
		default:
			valid = append(valid, Interval{Start: br.Start, End: br.End})
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Start < valid[j].Start })

	merged := make([]Interval, 0, len(valid))
	for _, iv := range valid {
		if n := len(merged); n > 0 && iv.Start <= merged[n-1].End {
			if iv.End > merged[n-1].End {
				merged[n-1].End = iv.End
			}
			logger.Warn("overlapping break intervals merged",
				zap.String("weekday", day.DayOfWeek.String()),
				zap.String("break", iv.Start.String()+"-"+iv.End.String()))
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

func (s *Snapshot) warnBreak(logger *zap.Logger, wd time.Weekday, br domain.BreakInterval, reason string) {
	logger.Warn("break interval ignored",
		zap.Error(ErrInvalidBreakDefinition),
		zap.String("weekday", wd.String()),
		zap.String("break", br.Start.String()+"-"+br.End.String()),
		zap.String("reason", reason))
	s.issues = append(s.issues, Issue{
		Weekday: wd,
		Reason:  fmt.Sprintf("%s: break %s-%s %s", ErrInvalidBreakDefinition, br.Start, br.End, reason),
	})
}

func (s *Snapshot) warn(logger *zap.Logger, wd time.Weekday, reason string) {
	logger.Warn("operational hours day adjusted", zap.String("weekday", wd.String()), zap.String("reason", reason))
	s.issues = append(s.issues, Issue{Weekday: wd, Reason: reason})
}

func copyRules(rules []domain.ExclusionRule) []domain.ExclusionRule {
	out := make([]domain.ExclusionRule, 0, len(rules))
	for _, rule := range rules {
		cp := rule
		if rule.Date != nil {
			date := *rule.Date
			cp.Date = &date
		}
		if rule.Weekday != nil {
			wd := *rule.Weekday
			cp.Weekday = &wd
		}
		cp.Weeks = append([]int(nil), rule.Weeks...)
		cp.Months = append([]time.Month(nil), rule.Months...)
		out = append(out, cp)
	}
	return out
}

// ConfigID identifies the configuration the snapshot was taken from.
func (s *Snapshot) ConfigID() int64 { return s.configID }

// Mode returns the working time mode.
func (s *Snapshot) Mode() domain.WorkingTimeMode { return s.mode }

// Location returns the civil calendar's location.
func (s *Snapshot) Location() *time.Location { return s.loc }

// UpdatedAt returns the configuration's last modification time.
func (s *Snapshot) UpdatedAt() time.Time { return s.updatedAt }

// Issues lists the defects neutralised while building the snapshot.
func (s *Snapshot) Issues() []Issue {
	return append([]Issue(nil), s.issues...)
}

// Rules returns a copy of the exclusion rules.
func (s *Snapshot) Rules() []domain.ExclusionRule {
	return copyRules(s.rules)
}

// HasCapacity reports whether at least one weekday accrues time. Exclusion rules are not
// considered; the lookahead bound covers them.
func (s *Snapshot) HasCapacity() bool {
	for wd := range s.days {
		if s.days[wd].capacity() > 0 {
			return true
		}
	}
	return false
}

func (d dayTemplate) capacity() int {
	if !d.working {
		return 0
	}
	total := int(d.end) - int(d.start)
	for _, br := range d.breaks {
		total -= br.Minutes()
	}
	return total
}
