package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinutesFromHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  int
	}{
		{0, 0},
		{0.1, 6},
		{0.25, 15},
		{1.0 / 3, 20},
		{1.5, 90},
		{0.9999, 60},
		{36, 2160},
	}

	for _, tt := range tests {
		h, err := HoursDecimal(tt.hours)
		require.NoError(t, err)
		assert.Equal(t, tt.want, MinutesFromHours(h), "hours=%v", tt.hours)
	}
}

func TestDurationFromHours(t *testing.T) {
	assert.Equal(t, 90*time.Minute, DurationFromHours(decimal.RequireFromString("1.5")))
	assert.Equal(t, 6*time.Minute, DurationFromHours(decimal.RequireFromString("0.1")))
}

func TestHoursFromComponents(t *testing.T) {
	assert.Equal(t, 11.5, HoursFromComponents(1, 2, 30, true, 9))
	assert.Equal(t, 24.0, HoursFromComponents(1, 0, 0, false, 9))
	assert.Equal(t, 1.5, HoursFromComponents(0, 0, 90, false, 9))
	assert.Equal(t, 0.0, HoursFromComponents(-1, -2, -3, false, 9))
}
