package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

func tod(val string) domain.TimeOfDay {
	return domain.MustTimeOfDay(val)
}

func todPtr(val string) *domain.TimeOfDay {
	t := tod(val)
	return &t
}

func lunch() []domain.BreakInterval {
	return []domain.BreakInterval{{Start: tod("12:00"), End: tod("13:00")}}
}

// helpdeskConfig: Mon-Fri 08:00-18:00 with lunch 12:00-13:00, Saturday 08:00-12:00, Sunday off.
func helpdeskConfig() *domain.OperationalHoursConfig {
	cfg := &domain.OperationalHoursConfig{
		ID:                 1,
		Mode:               domain.ModeStandard,
		StandardStart:      tod("08:00"),
		StandardEnd:        tod("18:00"),
		StandardBreakStart: todPtr("12:00"),
		StandardBreakEnd:   todPtr("13:00"),
		IsActive:           true,
	}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		cfg.WorkingDays = append(cfg.WorkingDays, domain.WorkingDay{
			DayOfWeek:    wd,
			Enabled:      true,
			ScheduleType: domain.ScheduleStandard,
			Breaks:       lunch(),
		})
	}
	cfg.WorkingDays = append(cfg.WorkingDays,
		domain.WorkingDay{
			DayOfWeek:    time.Saturday,
			Enabled:      true,
			ScheduleType: domain.ScheduleCustom,
			CustomStart:  todPtr("08:00"),
			CustomEnd:    todPtr("12:00"),
		},
		domain.WorkingDay{
			DayOfWeek:    time.Sunday,
			Enabled:      false,
			ScheduleType: domain.ScheduleNotSet,
		},
	)
	return cfg
}

func mustSnapshot(t *testing.T, cfg *domain.OperationalHoursConfig) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(cfg, time.UTC, zap.NewNop())
	require.NoError(t, err)
	return snap
}

// at builds a UTC instant in March 2024. The 15th is a Friday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) domain.CivilDate {
	return domain.CivilDate{Year: y, Month: m, Day: d}
}

func weekdayPtr(wd time.Weekday) *time.Weekday {
	return &wd
}
