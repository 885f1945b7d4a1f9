package schedule

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

var operational = Options{UseOperationalHours: true}

func TestDueDateOperationalHours(t *testing.T) {
	snap := mustSnapshot(t, helpdeskConfig())
	calc := NewCalculator(0)

	tests := []struct {
		name  string
		start time.Time
		hours float64
		want  time.Time
	}{
		{"crosses lunch on the same day", at(15, 10, 13), 4, at(15, 15, 13)},
		{"after hours start walks into next week", at(13, 18, 55), 36, at(19, 14, 0)},
		{"start on break boundary proceeds from break end", at(15, 12, 0), 1, at(15, 14, 0)},
		{"start inside break", at(15, 12, 30), 1, at(15, 14, 0)},
		{"landing on break start is pushed to break end", at(15, 10, 0), 2, at(15, 13, 0)},
		{"crossing the whole break", at(15, 10, 0), 3, at(15, 14, 0)},
		{"landing exactly on day end", at(15, 17, 0), 1, at(15, 18, 0)},
		{"before opening snaps to start", at(15, 6, 30), 1, at(15, 9, 0)},
		{"sunday start accrues from monday", at(17, 10, 0), 1, at(18, 9, 0)},
		{"friday evening rolls to saturday", at(15, 18, 0), 2, at(16, 10, 0)},
		{"saturday overflow skips sunday", at(16, 11, 0), 2, at(18, 9, 0)},
		{"fractional hours", at(15, 11, 0), 1.5, at(15, 13, 30)},
		{"quarter hour", at(15, 9, 0), 0.25, at(15, 9, 15)},
		{"zero inside window returns start", at(15, 10, 13), 0, at(15, 10, 13)},
		{"zero on break start returns break end", at(15, 12, 0), 0, at(15, 13, 0)},
		{"zero at day end returns next window start", at(15, 18, 0), 0, at(16, 8, 0)},
		{"zero on sunday returns monday start", at(17, 10, 0), 0, at(18, 8, 0)},
		{"full working day", at(18, 8, 0), 9, at(18, 18, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.DueDate(snap, tt.start, tt.hours, operational)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "DueDate(%s, %v)", tt.start.Format(time.RFC3339), tt.hours)
		})
	}
}

func TestDueDateSubMinuteStartRoundsUp(t *testing.T) {
	snap := mustSnapshot(t, helpdeskConfig())
	calc := NewCalculator(0)

	start := at(15, 10, 13).Add(30 * time.Second)
	got, err := calc.DueDate(snap, start, 0, operational)
	require.NoError(t, err)
	assert.Equal(t, at(15, 10, 14), got)

	got, err = calc.DueDate(snap, start, 0, Options{IncludeHolidays: true})
	require.NoError(t, err)
	assert.Equal(t, at(15, 10, 14), got)

	// Plain calendar time keeps the start untouched.
	got, err = calc.DueDate(snap, start, 0, Options{})
	require.NoError(t, err)
	assert.Equal(t, start, got)
}

func TestDueDateCalendarTimeEquivalence(t *testing.T) {
	snap := mustSnapshot(t, helpdeskConfig())
	calc := NewCalculator(0)
	start := time.Date(2024, time.March, 15, 10, 13, 27, 500, time.UTC)

	for _, h := range []float64{0, 0.5, 1, 4, 7.75, 24, 36, 1000} {
		for _, s := range []*Snapshot{nil, snap} {
			got, err := calc.DueDate(s, start, h, Options{})
			require.NoError(t, err)
			assert.Equal(t, start.Add(time.Duration(h*float64(time.Hour))), got, "hours=%v", h)
		}
	}
}

func TestDueDateCalendarTimeSkipsHolidays(t *testing.T) {
	christmas := date(2024, time.December, 25)
	cfg := helpdeskConfig()
	cfg.ExclusionRules = []domain.ExclusionRule{{Name: "Christmas", Kind: domain.ExclusionDate, Date: &christmas, RecurYearly: true}}
	snap := mustSnapshot(t, cfg)
	calc := NewCalculator(0)

	start := time.Date(2024, time.December, 24, 12, 0, 0, 0, time.UTC)
	got, err := calc.DueDate(snap, start, 24, Options{IncludeHolidays: true})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 26, 12, 0, 0, 0, time.UTC), got)

	// Without a snapshot there are no holidays to skip.
	got, err = calc.DueDate(nil, start, 24, Options{IncludeHolidays: true})
	require.NoError(t, err)
	assert.Equal(t, start.Add(24*time.Hour), got)
}

func TestDueDateSkipsExcludedDates(t *testing.T) {
	monday := date(2024, time.March, 18)
	cfg := helpdeskConfig()
	cfg.ExclusionRules = []domain.ExclusionRule{{Name: "Company day", Kind: domain.ExclusionDate, Date: &monday}}
	snap := mustSnapshot(t, cfg)

	got, err := NewCalculator(0).DueDate(snap, at(16, 11, 0), 2, operational)
	require.NoError(t, err)
	assert.Equal(t, at(19, 9, 0), got)
}

func TestDueDateRoundTheClock(t *testing.T) {
	saturday := date(2024, time.March, 16)
	cfg := &domain.OperationalHoursConfig{
		Mode:           domain.ModeRoundTheClock,
		ExclusionRules: []domain.ExclusionRule{{Kind: domain.ExclusionDate, Date: &saturday}},
	}
	snap := mustSnapshot(t, cfg)
	calc := NewCalculator(0)

	got, err := calc.DueDate(snap, at(15, 23, 0), 2, operational)
	require.NoError(t, err)
	assert.Equal(t, at(17, 1, 0), got)

	got, err = calc.DueDate(snap, at(14, 23, 0), 1, operational)
	require.NoError(t, err)
	assert.Equal(t, at(15, 0, 0), got)
}

func TestDueDateErrors(t *testing.T) {
	calc := NewCalculator(30)

	t.Run("configuration missing", func(t *testing.T) {
		_, err := calc.DueDate(nil, at(15, 10, 0), 1, operational)
		assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	})

	t.Run("every weekday disabled", func(t *testing.T) {
		cfg := helpdeskConfig()
		for i := range cfg.WorkingDays {
			cfg.WorkingDays[i].Enabled = false
		}
		_, err := calc.DueDate(mustSnapshot(t, cfg), at(15, 10, 0), 1, operational)
		assert.ErrorIs(t, err, ErrUnsatisfiableSchedule)
	})

	t.Run("every date excluded", func(t *testing.T) {
		cfg := helpdeskConfig()
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			cfg.ExclusionRules = append(cfg.ExclusionRules, domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: weekdayPtr(wd)})
		}
		_, err := calc.DueDate(mustSnapshot(t, cfg), at(15, 10, 0), 1, operational)
		assert.ErrorIs(t, err, ErrUnsatisfiableSchedule)
	})

	t.Run("invalid durations", func(t *testing.T) {
		snap := mustSnapshot(t, helpdeskConfig())
		for _, h := range []float64{-1, math.NaN(), math.Inf(1), MaxDurationHours + 1} {
			_, err := calc.DueDate(snap, at(15, 10, 0), h, operational)
			assert.True(t, errors.Is(err, ErrInvalidDuration), "hours=%v err=%v", h, err)
		}
	})
}

func TestDueDateMonotonicInDuration(t *testing.T) {
	snap := mustSnapshot(t, helpdeskConfig())
	calc := NewCalculator(0)

	for _, start := range []time.Time{at(15, 10, 13), at(13, 18, 55), at(17, 9, 0), at(15, 12, 0)} {
		prev := time.Time{}
		for h := 0.0; h <= 60; h += 0.25 {
			got, err := calc.DueDate(snap, start, h, operational)
			require.NoError(t, err)
			assert.False(t, got.Before(prev), "start=%s hours=%v went backwards", start, h)
			prev = got
		}
	}
}

func TestDueDateContainment(t *testing.T) {
	snap := mustSnapshot(t, helpdeskConfig())
	calc := NewCalculator(0)

	for minute := 0; minute < 7*24*60; minute += 37 {
		start := at(11, 0, 0).Add(time.Duration(minute) * time.Minute)
		for _, h := range []float64{0, 0.5, 1, 2, 3.25, 9, 13} {
			got, err := calc.DueDate(snap, start, h, operational)
			require.NoError(t, err)

			w := snap.WindowFor(domain.DateOf(got))
			pos := minuteOfDay(got)
			require.True(t, w.Working, "due %s on non-working date", got)
			assert.True(t, pos >= w.Start && pos <= w.End, "due %s outside window", got)
			for _, br := range w.Breaks {
				assert.False(t, pos >= br.Start && pos < br.End, "due %s inside break %v", got, br)
			}
		}
	}
}

func TestDueDateIsDeterministic(t *testing.T) {
	snap := mustSnapshot(t, helpdeskConfig())
	calc := NewCalculator(0)

	first, err := calc.DueDate(snap, at(13, 18, 55), 36, operational)
	require.NoError(t, err)
	second, err := calc.DueDate(snap, at(13, 18, 55), 36, operational)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestElapsedMatchesDueDate(t *testing.T) {
	snap := mustSnapshot(t, helpdeskConfig())
	calc := NewCalculator(0)

	for _, start := range []time.Time{at(15, 10, 13), at(13, 18, 55), at(15, 12, 0)} {
		for _, h := range []float64{0.5, 4, 9, 36} {
			due, err := calc.DueDate(snap, start, h, operational)
			require.NoError(t, err)
			assert.Equal(t, int(h*60), calc.Elapsed(snap, start, due), "start=%s hours=%v", start, h)
		}
	}
	assert.Equal(t, 0, calc.Elapsed(snap, at(15, 12, 0), at(15, 10, 0)))
	assert.Equal(t, 30, calc.Elapsed(snap, at(15, 11, 30), at(15, 12, 45)))
}

func TestIsWorkingAndNextWorkingInstant(t *testing.T) {
	snap := mustSnapshot(t, helpdeskConfig())
	calc := NewCalculator(0)

	assert.True(t, IsWorking(snap, at(15, 8, 0)))
	assert.False(t, IsWorking(snap, at(15, 12, 0)))
	assert.True(t, IsWorking(snap, at(15, 13, 0)))
	assert.False(t, IsWorking(snap, at(15, 18, 0)))
	assert.False(t, IsWorking(snap, at(17, 10, 0)))

	next, err := calc.NextWorkingInstant(snap, at(16, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, at(18, 8, 0), next)
}

func TestDueDateInLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	snap, err := NewSnapshot(helpdeskConfig(), loc, nil)
	require.NoError(t, err)

	// 03:13 UTC is 10:13 local on Friday.
	start := time.Date(2024, time.March, 15, 3, 13, 0, 0, time.UTC)
	got, err := NewCalculator(0).DueDate(snap, start, 4, operational)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, time.March, 15, 15, 13, 0, 0, loc)), "got %s", got)
}
