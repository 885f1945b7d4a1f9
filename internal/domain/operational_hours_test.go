package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "08:30", want: 510},
		{in: " 18:00 ", want: 1080},
		{in: "24:00", want: MinutesPerDay},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "12", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOperationalHoursConfigJSON(t *testing.T) {
	raw := `{"mode":"standard","standard_start":"08:00","standard_end":"17:30",
		"working_days":[{"day_of_week":1,"enabled":true,"schedule_type":"standard",
		"breaks":[{"start":"12:00","end":"12:45"}]}],
		"exclusion_rules":[{"name":"New Year","kind":"date","date":"2025-01-01","recur_yearly":true}]}`

	var cfg OperationalHoursConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	assert.Equal(t, MustTimeOfDay("17:30"), cfg.StandardEnd)
	require.Len(t, cfg.WorkingDays, 1)
	assert.Equal(t, time.Monday, cfg.WorkingDays[0].DayOfWeek)
	assert.Equal(t, 45, cfg.WorkingDays[0].Breaks[0].Minutes())
	require.NotNil(t, cfg.ExclusionRules[0].Date)
	assert.Equal(t, CivilDate{Year: 2025, Month: time.January, Day: 1}, *cfg.ExclusionRules[0].Date)
}

func TestCivilDate(t *testing.T) {
	d := CivilDate{Year: 2024, Month: time.February, Day: 28}
	assert.Equal(t, CivilDate{Year: 2024, Month: time.February, Day: 29}, d.AddDays(1))
	assert.Equal(t, CivilDate{Year: 2024, Month: time.March, Day: 1}, d.AddDays(2))
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
	assert.Equal(t, "2024-02-28", d.String())

	loc := time.FixedZone("EST", -5*60*60)
	assert.Equal(t, time.Date(2024, time.February, 28, 23, 59, 0, 0, loc), d.At(MustTimeOfDay("23:59"), loc))
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, loc), d.At(MinutesPerDay, loc))

	_, err := ParseCivilDate("2024-02-30")
	assert.Error(t, err)
}

func TestHolidayExclusionRule(t *testing.T) {
	h := Holiday{ID: 7, Name: "Christmas", Date: CivilDate{Year: 2024, Month: time.December, Day: 25}, IsRecurring: true}
	rule := h.ExclusionRule()
	assert.Equal(t, ExclusionDate, rule.Kind)
	assert.True(t, rule.RecurYearly)
	assert.Equal(t, "Christmas", rule.Name)
	require.NotNil(t, rule.Date)
	assert.Equal(t, h.Date, *rule.Date)
}
