package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
)

type fakeHistoryRepo struct {
	entries []domain.TicketSLAHistory
	err     error
}

func (f *fakeHistoryRepo) Create(_ context.Context, h *domain.TicketSLAHistory) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *h)
	return nil
}

func (f *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketSLAHistory, error) {
	var out []domain.TicketSLAHistory
	for _, e := range f.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestSLAHistoryRecordsEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	repo := &fakeHistoryRepo{}
	history := NewSLAHistoryService(dispatcher, repo, zap.NewNop())
	history.RegisterHandlers()
	ctx := context.Background()

	due := time.Date(2024, time.March, 19, 17, 13, 0, 0, time.UTC)
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventSLADueDateSet, "T-1", events.StaffActor("lead-1"), due,
		events.SLADueDateSetPayload{Priority: domain.TicketPriorityUrgent, SLAHours: 24, DueAt: due})))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventSLAEscalationTriggered, "T-1", events.SystemActor, due,
		events.SLAEscalationTriggeredPayload{Level: 2, EscalateType: domain.EscalateAfter, DueAt: due, Breached: true})))

	entries, err := history.List(ctx, "T-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.SLAChangeDueDateSet, entries[0].ChangeType)
	assert.Equal(t, domain.SubjectTypeStaff, entries[0].ChangedByType)
	require.NotNil(t, entries[0].ChangedByID)
	assert.Equal(t, "lead-1", *entries[0].ChangedByID)
	assert.Equal(t, "URGENT", entries[0].Details["priority"])
	assert.Equal(t, 24.0, entries[0].Details["sla_hours"])

	assert.Equal(t, domain.SLAChangeEscalated, entries[1].ChangeType)
	assert.Equal(t, domain.SubjectTypeSystem, entries[1].ChangedByType)
	assert.Nil(t, entries[1].ChangedByID)
	assert.Equal(t, true, entries[1].Details["breached"])
}

func TestSLAHistoryFailureSurfacesThroughDispatcher(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewSLAHistoryService(dispatcher, &fakeHistoryRepo{err: errors.New("insert failed")}, nil).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.NewEvent(events.EventSLADueDateSet, "T-1", events.SystemActor, time.Now(), nil))
	assert.ErrorContains(t, err, "insert failed")
}

func TestSLAHistoryWithoutStorage(t *testing.T) {
	history := NewSLAHistoryService(events.NewInMemoryDispatcher(), nil, nil)
	history.RegisterHandlers()

	_, err := history.List(context.Background(), "T-1")
	assert.Error(t, err)
}
