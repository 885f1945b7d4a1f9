package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

const sampleCalendar = `
mode: standard
standard_start: "08:00"
standard_end: "18:00"
working_days:
  - day_of_week: 1
    enabled: true
    schedule_type: standard
    breaks:
      - start: "12:00"
        end: "13:00"
  - day_of_week: 6
    enabled: true
    schedule_type: custom
    custom_start: "09:00"
    custom_end: "12:00"
exclusion_rules:
  - name: Second and fourth Saturday
    kind: weekday
    weekday: 6
    weeks: [2, 4]
holidays:
  - name: Christmas
    date: "2024-12-25"
    recurring: true
  - name: Retired
    date: "2024-01-02"
    inactive: true
`

func TestParseCalendar(t *testing.T) {
	cfg, err := ParseCalendar([]byte(sampleCalendar))
	require.NoError(t, err)

	assert.True(t, cfg.IsActive)
	assert.Equal(t, domain.ModeStandard, cfg.Mode)
	assert.Equal(t, domain.MustTimeOfDay("18:00"), cfg.StandardEnd)
	require.Len(t, cfg.WorkingDays, 2)
	assert.Equal(t, time.Monday, cfg.WorkingDays[0].DayOfWeek)
	assert.Equal(t, []domain.BreakInterval{{Start: domain.MustTimeOfDay("12:00"), End: domain.MustTimeOfDay("13:00")}}, cfg.WorkingDays[0].Breaks)
	require.NotNil(t, cfg.WorkingDays[1].CustomStart)
	assert.Equal(t, domain.MustTimeOfDay("09:00"), *cfg.WorkingDays[1].CustomStart)

	require.Len(t, cfg.ExclusionRules, 2)
	assert.Equal(t, []int{2, 4}, cfg.ExclusionRules[0].Weeks)
	christmas := cfg.ExclusionRules[1]
	assert.Equal(t, "Christmas", christmas.Name)
	assert.True(t, christmas.RecurYearly)
	assert.Equal(t, domain.CivilDate{Year: 2024, Month: time.December, Day: 25}, *christmas.Date)
}

func TestParseCalendarRejectsUnknownKeys(t *testing.T) {
	_, err := ParseCalendar([]byte("mode: standard\nopening: \"08:00\"\n"))
	assert.Error(t, err)
}

func TestParseCalendarInactive(t *testing.T) {
	_, err := ParseCalendar([]byte("is_active: false\n"))
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
}

func TestFileRepositoryGetActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.yaml")
	repo := NewFileOperationalHoursRepository(path)

	_, err := repo.GetActive(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)

	require.NoError(t, os.WriteFile(path, []byte(sampleCalendar), 0o600))
	cfg, err := repo.GetActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, cfg.WorkingDays, 2)
	assert.False(t, cfg.UpdatedAt.IsZero())
}

func TestShippedCalendarParses(t *testing.T) {
	cfg, err := NewFileOperationalHoursRepository(filepath.Join("..", "..", "configs", "calendar.yaml")).GetActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, cfg.WorkingDays, 7)
	assert.Len(t, cfg.ExclusionRules, 3)
	assert.False(t, cfg.UpdatedAt.IsZero())
}
