package schedule

import "time"

// State classifies progress towards an SLA due date.
type State string

const (
	StateOnTrack  State = "on-track"
	StateAtRisk   State = "at-risk"
	StateBreached State = "breached"
)

// Status summarises an SLA at a point in time.
type Status struct {
	State            State     `json:"state"`
	DueAt            time.Time `json:"due_at"`
	RemainingHours   int       `json:"remaining_hours"`
	RemainingMinutes int       `json:"remaining_minutes"`
}

// EvaluateStatus reports breached once now is past due, at-risk when at most atRisk is left.
func EvaluateStatus(due, now time.Time, atRisk time.Duration) Status {
	st := Status{DueAt: due}
	left := due.Sub(now)
	switch {
	case left < 0:
		st.State = StateBreached
		return st
	case left <= atRisk:
		st.State = StateAtRisk
	default:
		st.State = StateOnTrack
	}
	st.RemainingHours = int(left / time.Hour)
	st.RemainingMinutes = int((left % time.Hour) / time.Minute)
	return st
}
