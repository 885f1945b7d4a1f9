package schedule

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// DefaultMaxLookaheadDays bounds consecutive dates without accruable time (three years).
const DefaultMaxLookaheadDays = 3 * 366

// Options selects the accrual mode of a calculation.
//
// Plain calendar time (neither flag set) is exact: the result is start plus the duration, to
// the nanosecond. Every walked mode (operational hours, or calendar time with holidays) works
// in whole minutes and rounds a sub-minute start up to the next minute first, so even a zero
// duration from 10:13:30 yields 10:14:00.
type Options struct {
	// UseOperationalHours accrues time only inside working windows.
	UseOperationalHours bool `json:"use_operational_hours"`
	// IncludeHolidays makes calendar-time calculations skip excluded dates. It has no effect
	// when UseOperationalHours is set, since working windows already honour exclusions.
	IncludeHolidays bool `json:"include_holidays"`
}

// Calculator computes SLA due dates against a configuration snapshot. It holds no mutable state.
type Calculator struct {
	maxLookaheadDays int
}

// NewCalculator builds a calculator; non-positive lookahead falls back to the default.
func NewCalculator(maxLookaheadDays int) *Calculator {
	if maxLookaheadDays <= 0 {
		maxLookaheadDays = DefaultMaxLookaheadDays
	}
	return &Calculator{maxLookaheadDays: maxLookaheadDays}
}

// DueDate returns the instant by which durationHours of SLA time have accrued from start.
// snap may be nil when no configuration exists; that is an error only for operational hours.
func (c *Calculator) DueDate(snap *Snapshot, start time.Time, durationHours float64, opts Options) (time.Time, error) {
	hours, err := HoursDecimal(durationHours)
	if err != nil {
		return time.Time{}, err
	}
	return c.dueDate(snap, start, hours, opts)
}

func (c *Calculator) dueDate(snap *Snapshot, start time.Time, hours decimal.Decimal, opts Options) (time.Time, error) {
	if !opts.UseOperationalHours {
		if !opts.IncludeHolidays || snap == nil {
			return start.Add(DurationFromHours(hours)), nil
		}
		return c.Walk(snap.AroundTheClock(), start, MinutesFromHours(hours))
	}
	if snap == nil {
		return time.Time{}, domain.ErrConfigurationMissing
	}
	if !snap.HasCapacity() {
		return time.Time{}, fmt.Errorf("%w: no weekday has working time", ErrUnsatisfiableSchedule)
	}
	return c.Walk(snap, start, MinutesFromHours(hours))
}

// Walk consumes minutes of accruable time from start, date by date. Sub-minute components of
// start are rounded up to the next whole minute.
func (c *Calculator) Walk(r WorkingWindowResolver, start time.Time, minutes int) (time.Time, error) {
	if minutes < 0 {
		return time.Time{}, fmt.Errorf("%w: negative minutes", ErrInvalidDuration)
	}
	loc := r.Location()
	cursor := ceilMinute(start.In(loc))
	date := domain.DateOf(cursor)
	pos := minuteOfDay(cursor)
	remaining := minutes
	idle := 0

	for {
		w := r.WindowFor(date)
		productive := false
		if w.Working {
			if pos < w.Start {
				pos = w.Start
			}
			pos = w.skipBreaks(pos)
			if pos < w.End {
				if remaining == 0 {
					return date.At(pos, loc), nil
				}
				available := w.availableFrom(pos)
				if remaining <= available {
					return date.At(w.land(pos, remaining), loc), nil
				}
				remaining -= available
				productive = true
			}
		}

		if productive {
			idle = 0
		} else {
			idle++
			if idle > c.maxLookaheadDays {
				return time.Time{}, fmt.Errorf("%w: %d consecutive days without working time after %s",
					ErrUnsatisfiableSchedule, idle, date)
			}
		}
		date = date.AddDays(1)
		pos = 0
	}
}

// NextWorkingInstant returns t when it accrues time, otherwise the start of the next working
// window.
func (c *Calculator) NextWorkingInstant(r WorkingWindowResolver, t time.Time) (time.Time, error) {
	return c.Walk(r, t, 0)
}

// IsWorking reports whether t falls inside a working window and outside every break.
func IsWorking(r WorkingWindowResolver, t time.Time) bool {
	local := t.In(r.Location())
	return r.WindowFor(domain.DateOf(local)).Contains(minuteOfDay(local))
}

// Elapsed returns the accruable minutes between from and to. Partial minutes at either end are
// not counted.
func (c *Calculator) Elapsed(r WorkingWindowResolver, from, to time.Time) int {
	loc := r.Location()
	from = ceilMinute(from.In(loc))
	to = to.In(loc).Truncate(time.Minute)
	if !to.After(from) {
		return 0
	}

	fromDate, toDate := domain.DateOf(from), domain.DateOf(to)
	total := 0
	for date := fromDate; !toDate.Before(date); date = date.AddDays(1) {
		w := r.WindowFor(date)
		if !w.Working {
			continue
		}
		lo, hi := w.Start, w.End
		if date == fromDate {
			lo = max(lo, minuteOfDay(from))
		}
		if date == toDate {
			hi = min(hi, minuteOfDay(to))
		}
		if hi <= lo {
			continue
		}
		total += int(hi) - int(lo) - w.overlap(lo, hi)
	}
	return total
}

func ceilMinute(t time.Time) time.Time {
	truncated := t.Truncate(time.Minute)
	if truncated.Before(t) {
		return truncated.Add(time.Minute)
	}
	return truncated
}

func minuteOfDay(t time.Time) domain.TimeOfDay {
	return domain.TimeOfDay(t.Hour()*60 + t.Minute())
}
