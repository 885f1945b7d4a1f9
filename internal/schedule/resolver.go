package schedule

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// Window describes the working hours of one calendar date.
type Window struct {
	Date    domain.CivilDate `json:"date"`
	Working bool             `json:"working"`
	Reason  string           `json:"reason,omitempty"`
	Start   domain.TimeOfDay `json:"start"`
	End     domain.TimeOfDay `json:"end"`
	Breaks  []Interval       `json:"breaks"`
}

// WorkingWindowResolver answers which hours of a date accrue SLA time.
type WorkingWindowResolver interface {
	WindowFor(date domain.CivilDate) Window
	Location() *time.Location
}

// WindowFor resolves date against exclusion rules first, then the weekday template.
func (s *Snapshot) WindowFor(date domain.CivilDate) Window {
	if rule, ok := MatchingRule(s.rules, date); ok {
		reason := "excluded"
		if rule.Name != "" {
			reason = "excluded: " + rule.Name
		}
		return Window{Date: date, Reason: reason}
	}
	tpl := s.days[date.Weekday()]
	if !tpl.working {
		return Window{Date: date, Reason: tpl.reason}
	}
	return Window{
		Date:    date,
		Working: true,
		Start:   tpl.start,
		End:     tpl.end,
		Breaks:  append([]Interval(nil), tpl.breaks...),
	}
}

// Capacity returns the accruable minutes of the window.
func (w Window) Capacity() int {
	if !w.Working {
		return 0
	}
	total := int(w.End) - int(w.Start)
	for _, br := range w.Breaks {
		total -= br.Minutes()
	}
	return total
}

// Contains reports whether pos accrues time: inside [Start, End) and outside every break.
// A position equal to a break start is inside that break.
func (w Window) Contains(pos domain.TimeOfDay) bool {
	if !w.Working || pos < w.Start || pos >= w.End {
		return false
	}
	_, inBreak := w.breakAt(pos)
	return !inBreak
}

func (w Window) breakAt(pos domain.TimeOfDay) (Interval, bool) {
	for _, br := range w.Breaks {
		if pos >= br.Start && pos < br.End {
			return br, true
		}
	}
	return Interval{}, false
}

// skipBreaks moves pos to the end of the break containing it. Breaks are merged, so one hop
// is enough.
func (w Window) skipBreaks(pos domain.TimeOfDay) domain.TimeOfDay {
	if br, ok := w.breakAt(pos); ok {
		return br.End
	}
	return pos
}

// availableFrom returns accruable minutes between pos and the end of the day. pos must not be
// inside a break, so every break either ended before pos or starts after it.
func (w Window) availableFrom(pos domain.TimeOfDay) int {
	total := int(w.End) - int(pos)
	for _, br := range w.Breaks {
		if br.Start >= pos {
			total -= br.Minutes()
		}
	}
	return total
}

// land advances pos by minutes of accruable time. Each upcoming break whose start is reached
// is crossed by pushing the landing point by its duration; reaching a start exactly counts.
func (w Window) land(pos domain.TimeOfDay, minutes int) domain.TimeOfDay {
	end := int(pos) + minutes
	for _, br := range w.Breaks {
		if br.Start < pos {
			continue
		}
		if end < int(br.Start) {
			break
		}
		end += br.Minutes()
	}
	return domain.TimeOfDay(end)
}

// overlap returns the break minutes falling inside [lo, hi).
func (w Window) overlap(lo, hi domain.TimeOfDay) int {
	total := 0
	for _, br := range w.Breaks {
		s, e := br.Start, br.End
		if s < lo {
			s = lo
		}
		if e > hi {
			e = hi
		}
		if e > s {
			total += int(e) - int(s)
		}
	}
	return total
}
