package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/v1/sla/due-date", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/api/v1/sla/due-date", "POST", 200, 30*time.Millisecond)
	m.RecordError("/api/v1/sla/due-date", "POST", "VALIDATION_FAILED")
	m.RecordCalculation("due_date", "ok")
	m.RecordCalculation("due_date", "ok")
	m.RecordCalculation("due_date", "unsatisfiable")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/v1/sla/due-date|POST|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMillis["/api/v1/sla/due-date|POST|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/v1/sla/due-date|POST|VALIDATION_FAILED"])
	assert.Equal(t, map[string]int64{"due_date|ok": 2, "due_date|unsatisfiable": 1}, snap.Calculations)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordCalculation("due_date", "ok")
	assert.Empty(t, m.Snapshot().Requests)
}
