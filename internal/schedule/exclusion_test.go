package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

func TestMatches(t *testing.T) {
	christmas := date(2024, time.December, 25)
	saturday := time.Saturday
	friday := time.Friday

	tests := []struct {
		name string
		rule domain.ExclusionRule
		date domain.CivilDate
		want bool
	}{
		{"fixed date", domain.ExclusionRule{Kind: domain.ExclusionDate, Date: &christmas}, christmas, true},
		{"fixed date other year", domain.ExclusionRule{Kind: domain.ExclusionDate, Date: &christmas}, date(2025, time.December, 25), false},
		{"yearly date other year", domain.ExclusionRule{Kind: domain.ExclusionDate, Date: &christmas, RecurYearly: true}, date(2025, time.December, 25), true},
		{"yearly date other day", domain.ExclusionRule{Kind: domain.ExclusionDate, Date: &christmas, RecurYearly: true}, date(2025, time.December, 24), false},
		{"date rule without date", domain.ExclusionRule{Kind: domain.ExclusionDate}, christmas, false},
		{"every saturday", domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: &saturday}, date(2024, time.March, 16), true},
		{"every saturday on friday", domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: &saturday}, date(2024, time.March, 15), false},
		{"second saturday", domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: &saturday, Weeks: []int{2, 4}}, date(2024, time.March, 9), true},
		{"fourth saturday", domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: &saturday, Weeks: []int{2, 4}}, date(2024, time.March, 23), true},
		{"third saturday", domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: &saturday, Weeks: []int{2, 4}}, date(2024, time.March, 16), false},
		{"fifth saturday", domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: &saturday, Weeks: []int{2, 4}}, date(2024, time.March, 30), false},
		{"last friday of december", domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: &friday, Weeks: []int{domain.LastWeekOfMonth}, Months: []time.Month{time.December}}, date(2024, time.December, 27), true},
		{"penultimate friday of december", domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: &friday, Weeks: []int{domain.LastWeekOfMonth}, Months: []time.Month{time.December}}, date(2024, time.December, 20), false},
		{"last friday outside month filter", domain.ExclusionRule{Kind: domain.ExclusionWeekday, Weekday: &friday, Weeks: []int{domain.LastWeekOfMonth}, Months: []time.Month{time.December}}, date(2024, time.November, 29), false},
		{"weekday rule without weekday", domain.ExclusionRule{Kind: domain.ExclusionWeekday}, date(2024, time.March, 16), false},
		{"unknown kind", domain.ExclusionRule{Kind: "lunar", Date: &christmas}, christmas, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.rule, tt.date))
		})
	}
}

func TestMatchingRuleReturnsFirstMatch(t *testing.T) {
	christmas := date(2024, time.December, 25)
	wednesday := time.Wednesday
	rules := []domain.ExclusionRule{
		{Name: "Wednesdays", Kind: domain.ExclusionWeekday, Weekday: &wednesday, Months: []time.Month{time.January}},
		{Name: "Christmas", Kind: domain.ExclusionDate, Date: &christmas},
		{Name: "Any Wednesday", Kind: domain.ExclusionWeekday, Weekday: &wednesday},
	}

	rule, ok := MatchingRule(rules, christmas)
	assert.True(t, ok)
	assert.Equal(t, "Christmas", rule.Name)

	_, ok = MatchingRule(rules, date(2024, time.December, 26))
	assert.False(t, ok)
}
