package schedule

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// Matches reports whether rule excludes date. It depends on nothing but its arguments.
func Matches(rule domain.ExclusionRule, date domain.CivilDate) bool {
	switch rule.Kind {
	case domain.ExclusionDate:
		if rule.Date == nil {
			return false
		}
		if rule.RecurYearly {
			return rule.Date.Month == date.Month && rule.Date.Day == date.Day
		}
		return *rule.Date == date
	case domain.ExclusionWeekday:
		if rule.Weekday == nil || date.Weekday() != *rule.Weekday {
			return false
		}
		return monthSelected(rule.Months, date.Month) && weekSelected(rule.Weeks, date)
	default:
		return false
	}
}

// MatchingRule returns the first rule excluding date.
func MatchingRule(rules []domain.ExclusionRule, date domain.CivilDate) (domain.ExclusionRule, bool) {
	for _, rule := range rules {
		if Matches(rule, date) {
			return rule, true
		}
	}
	return domain.ExclusionRule{}, false
}

func monthSelected(months []time.Month, month time.Month) bool {
	if len(months) == 0 {
		return true
	}
	for _, m := range months {
		if m == month {
			return true
		}
	}
	return false
}

func weekSelected(weeks []int, date domain.CivilDate) bool {
	if len(weeks) == 0 {
		return true
	}
	ordinal := (date.Day-1)/7 + 1
	last := date.AddDays(7).Month != date.Month
	for _, w := range weeks {
		if w == ordinal || (w == domain.LastWeekOfMonth && last) {
			return true
		}
	}
	return false
}
