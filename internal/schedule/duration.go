package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDurationHours caps SLA durations at roughly 100 years of calendar time.
const MaxDurationHours = 24 * 366 * 100

var (
	minutesPerHour = decimal.NewFromInt(60)
	nanosPerHour   = decimal.NewFromInt(int64(time.Hour))
)

// HoursDecimal validates hours and converts it without binary float rounding surprises.
func HoursDecimal(hours float64) (decimal.Decimal, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v hours", ErrInvalidDuration, hours)
	}
	return checkHours(decimal.NewFromFloat(hours))
}

func checkHours(hours decimal.Decimal) (decimal.Decimal, error) {
	if hours.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative duration %s hours", ErrInvalidDuration, hours)
	}
	if hours.GreaterThan(decimal.NewFromInt(MaxDurationHours)) {
		return decimal.Zero, fmt.Errorf("%w: %s hours exceeds maximum", ErrInvalidDuration, hours)
	}
	return hours, nil
}

// MinutesFromHours converts decimal hours to whole minutes, rounding half away from zero.
func MinutesFromHours(hours decimal.Decimal) int {
	return int(hours.Mul(minutesPerHour).Round(0).IntPart())
}

// DurationFromHours converts decimal hours to a time.Duration with nanosecond precision.
func DurationFromHours(hours decimal.Decimal) time.Duration {
	return time.Duration(hours.Mul(nanosPerHour).Round(0).IntPart())
}

// HoursFromComponents converts days/hours/minutes to SLA hours. Calendar days are 24 hours;
// operational days count workingDayHours each.
func HoursFromComponents(days, hours, minutes int, useOperationalHours bool, workingDayHours float64) float64 {
	dayHours := decimal.NewFromInt(24)
	if useOperationalHours {
		dayHours = decimal.NewFromFloat(workingDayHours)
	}
	total := dayHours.Mul(decimal.NewFromInt(int64(max(days, 0)))).
		Add(decimal.NewFromInt(int64(max(hours, 0)))).
		Add(decimal.NewFromInt(int64(max(minutes, 0))).Div(minutesPerHour))
	return total.InexactFloat64()
}
