package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/schedule"
)

// SLAService coordinates due-date calculation against the active operational hours.
type SLAService struct {
	hours       repository.OperationalHoursRepository
	ticketSLAs  repository.TicketSLARepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         config.SLAConfig
	loc         *time.Location
	now         func() time.Time
	calc        *schedule.Calculator
	escalations *schedule.EscalationScheduler

	mu     sync.Mutex
	cached *schedule.Snapshot
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	HoursRepo     repository.OperationalHoursRepository
	TicketSLARepo repository.TicketSLARepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Config        config.SLAConfig
	// Now defaults to time.Now.
	Now func() time.Time
}

// DueDateInput describes a due-date request. Duration is DurationHours unless Components is set.
type DueDateInput struct {
	Start         time.Time
	DurationHours float64
	Components    *DurationComponents
	Options       schedule.Options
}

// DurationComponents expresses an SLA target as days, hours and minutes.
type DurationComponents struct {
	Days    int
	Hours   int
	Minutes int
}

// DueDateResult carries the due date and the options actually applied.
type DueDateResult struct {
	DueAt         time.Time
	DurationHours float64
	Options       schedule.Options
	// FellBackToCalendar is set when operational hours were requested but no configuration
	// exists and the service is configured to degrade to calendar time.
	FellBackToCalendar bool
}

// CheckpointsInput describes an escalation plan request.
type CheckpointsInput struct {
	Start    time.Time
	SLAHours float64
	Levels   []domain.EscalationLevel
	Options  schedule.Options
}

// StatusInput describes an SLA status request. A zero Now means the current time.
type StatusInput struct {
	Start         time.Time
	DurationHours float64
	Options       schedule.Options
	Now           time.Time
}

// StampInput stamps an SLA on a ticket. Nil SLAHours or Levels take the priority's defaults.
type StampInput struct {
	TicketID  string
	Priority  domain.TicketPriority
	Status    domain.TicketStatus
	StartedAt time.Time
	SLAHours  *float64
	Levels    []domain.EscalationLevel
	Options   schedule.Options
}

// DaySummary describes one weekday of the active calendar.
type DaySummary struct {
	Weekday  string              `json:"weekday"`
	Working  bool                `json:"working"`
	Reason   string              `json:"reason,omitempty"`
	Start    string              `json:"start,omitempty"`
	End      string              `json:"end,omitempty"`
	Breaks   []schedule.Interval `json:"breaks"`
	Capacity int                 `json:"capacity_minutes"`
}

// OperationalHoursSummary describes the active calendar as the calculator sees it.
type OperationalHoursSummary struct {
	ConfigID       int64                  `json:"config_id"`
	Mode           domain.WorkingTimeMode `json:"mode"`
	Timezone       string                 `json:"timezone"`
	Days           []DaySummary           `json:"days"`
	ExclusionRules []domain.ExclusionRule `json:"exclusion_rules"`
	Issues         []schedule.Issue       `json:"issues"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) (*SLAService, error) {
	loc, err := deps.Config.Location()
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	calc := schedule.NewCalculator(deps.Config.MaxLookaheadDays)
	return &SLAService{
		hours:       deps.HoursRepo,
		ticketSLAs:  deps.TicketSLARepo,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		cfg:         deps.Config,
		loc:         loc,
		now:         now,
		calc:        calc,
		escalations: schedule.NewEscalationScheduler(calc),
	}, nil
}

// Snapshot loads the active configuration. The built snapshot is reused while the
// configuration's identity and modification time are unchanged.
func (s *SLAService) Snapshot(ctx context.Context) (*schedule.Snapshot, error) {
	if s.hours == nil {
		return nil, domain.ErrConfigurationMissing
	}
	cfg, err := s.hours.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.cached; c != nil && c.ConfigID() == cfg.ID && c.UpdatedAt().Equal(cfg.UpdatedAt) && !cfg.UpdatedAt.IsZero() {
		return c, nil
	}
	snap, err := schedule.NewSnapshot(cfg, s.loc, s.logger.With(zap.Int64("config_id", cfg.ID)))
	if err != nil {
		return nil, err
	}
	s.cached = snap
	return snap, nil
}

// CalculateDueDate computes the SLA due date for input.
func (s *SLAService) CalculateDueDate(ctx context.Context, input DueDateInput) (DueDateResult, error) {
	hours := input.DurationHours
	if input.Components != nil {
		hours = s.HoursFromComponents(*input.Components, input.Options.UseOperationalHours)
	}
	snap, opts, fellBack, err := s.prepare(ctx, input.Options)
	if err != nil {
		s.record("due_date", err)
		return DueDateResult{}, err
	}
	due, err := s.calc.DueDate(snap, input.Start, hours, opts)
	s.record("due_date", err)
	if err != nil {
		return DueDateResult{}, err
	}
	s.logger.Debug("sla due date calculated",
		zap.Time("start", input.Start),
		zap.Float64("hours", hours),
		zap.Bool("operational", opts.UseOperationalHours),
		zap.Time("due_at", due))
	return DueDateResult{DueAt: due, DurationHours: hours, Options: opts, FellBackToCalendar: fellBack}, nil
}

// CalculateEscalationCheckpoints computes the due date and escalation checkpoints for input.
func (s *SLAService) CalculateEscalationCheckpoints(ctx context.Context, input CheckpointsInput) (schedule.Plan, error) {
	if err := schedule.ValidateLevels(input.SLAHours, input.Levels); err != nil {
		s.record("checkpoints", err)
		return schedule.Plan{}, err
	}
	snap, opts, _, err := s.prepare(ctx, input.Options)
	if err != nil {
		s.record("checkpoints", err)
		return schedule.Plan{}, err
	}
	plan, err := s.escalations.Checkpoints(snap, input.Start, input.SLAHours, input.Levels, opts)
	s.record("checkpoints", err)
	return plan, err
}

// Status reports whether an SLA started at input.Start is on track, at risk or breached.
func (s *SLAService) Status(ctx context.Context, input StatusInput) (schedule.Status, error) {
	res, err := s.CalculateDueDate(ctx, DueDateInput{
		Start:         input.Start,
		DurationHours: input.DurationHours,
		Options:       input.Options,
	})
	if err != nil {
		return schedule.Status{}, err
	}
	now := input.Now
	if now.IsZero() {
		now = s.now()
	}
	return schedule.EvaluateStatus(res.DueAt, now, s.cfg.AtRisk()), nil
}

// Elapsed returns the SLA minutes accrued between from and to.
func (s *SLAService) Elapsed(ctx context.Context, from, to time.Time, opts schedule.Options) (int, error) {
	snap, opts, _, err := s.prepare(ctx, opts)
	if err != nil {
		s.record("elapsed", err)
		return 0, err
	}
	s.record("elapsed", nil)
	switch {
	case opts.UseOperationalHours:
		return s.calc.Elapsed(snap, from, to), nil
	case opts.IncludeHolidays && snap != nil:
		return s.calc.Elapsed(snap.AroundTheClock(), from, to), nil
	default:
		if !to.After(from) {
			return 0, nil
		}
		return int(to.Sub(from) / time.Minute), nil
	}
}

// IsWorking reports whether t accrues SLA time under the active calendar.
func (s *SLAService) IsWorking(ctx context.Context, t time.Time) (bool, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return schedule.IsWorking(snap, t), nil
}

// NextWorkingInstant returns t when it is working time, otherwise the next window start.
func (s *SLAService) NextWorkingInstant(ctx context.Context, t time.Time) (time.Time, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !snap.HasCapacity() {
		return time.Time{}, fmt.Errorf("%w: no weekday has working time", schedule.ErrUnsatisfiableSchedule)
	}
	return s.calc.NextWorkingInstant(snap, t)
}

// Window resolves the working window of date.
func (s *SLAService) Window(ctx context.Context, date domain.CivilDate) (schedule.Window, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return schedule.Window{}, err
	}
	return snap.WindowFor(date), nil
}

// OperationalHours summarises the active calendar with its weekly windows and neutralised defects.
func (s *SLAService) OperationalHours(ctx context.Context) (OperationalHoursSummary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return OperationalHoursSummary{}, err
	}
	summary := OperationalHoursSummary{
		ConfigID:       snap.ConfigID(),
		Mode:           snap.Mode(),
		Timezone:       snap.Location().String(),
		ExclusionRules: snap.Rules(),
		Issues:         snap.Issues(),
		UpdatedAt:      snap.UpdatedAt(),
	}
	// Templates are read through a rule-free view so exclusions do not hide the weekly shape.
	weekly := snap.WithoutExclusions()
	for wd := time.Monday; wd <= time.Saturday+1; wd++ {
		day := wd % 7
		w := weekly.WindowFor(referenceDate(day))
		ds := DaySummary{Weekday: day.String(), Working: w.Working, Reason: w.Reason, Breaks: w.Breaks, Capacity: w.Capacity()}
		if w.Working {
			ds.Start, ds.End = w.Start.String(), w.End.String()
		}
		summary.Days = append(summary.Days, ds)
	}
	return summary, nil
}

// CacheInvalidator is implemented by operational-hours repositories that keep a shared cache.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

var _ CacheInvalidator = (*repository.CachedOperationalHoursRepository)(nil)

// RefreshOperationalHours drops every cached copy of the calendar and reloads it, so edits made
// directly in the database take effect before the cache TTL runs out.
func (s *SLAService) RefreshOperationalHours(ctx context.Context) (OperationalHoursSummary, error) {
	if inv, ok := s.hours.(CacheInvalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			return OperationalHoursSummary{}, fmt.Errorf("invalidate operational hours cache: %w", err)
		}
	}
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()

	summary, err := s.OperationalHours(ctx)
	if err != nil {
		return OperationalHoursSummary{}, err
	}
	s.logger.Info("operational hours refreshed", zap.Int64("config_id", summary.ConfigID))
	return summary, nil
}

// HoursFromComponents converts days/hours/minutes using the configured working-day length.
func (s *SLAService) HoursFromComponents(c DurationComponents, useOperationalHours bool) float64 {
	return schedule.HoursFromComponents(c.Days, c.Hours, c.Minutes, useOperationalHours, float64(s.cfg.WorkingDayHours))
}

// StampTicketSLA computes and stores a ticket's SLA and announces it.
func (s *SLAService) StampTicketSLA(ctx context.Context, actor events.Actor, input StampInput) (*domain.TicketSLA, schedule.Plan, error) {
	if s.ticketSLAs == nil {
		return nil, schedule.Plan{}, errors.New("ticket SLA storage not configured")
	}
	input.TicketID = strings.TrimSpace(input.TicketID)
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if input.Status == "" {
		input.Status = domain.TicketStatusOpen
	}
	if input.StartedAt.IsZero() {
		input.StartedAt = s.now()
	}

	policy, hasPolicy := domain.DefaultSLAPolicy(input.Priority)
	hours := policy.ResolutionHours
	if input.SLAHours != nil {
		hours = *input.SLAHours
	} else if !hasPolicy {
		return nil, schedule.Plan{}, fmt.Errorf("%w: no SLA hours given and no default for priority %q",
			schedule.ErrInvalidDuration, input.Priority)
	}
	levels := input.Levels
	if levels == nil {
		levels = policy.EscalationLevels()
	}

	plan, err := s.CalculateEscalationCheckpoints(ctx, CheckpointsInput{
		Start:    input.StartedAt,
		SLAHours: hours,
		Levels:   levels,
		Options:  input.Options,
	})
	if err != nil {
		return nil, schedule.Plan{}, err
	}

	record := &domain.TicketSLA{
		TicketID:            input.TicketID,
		Priority:            input.Priority,
		Status:              input.Status,
		StartedAt:           input.StartedAt,
		SLAHours:            hours,
		UseOperationalHours: input.Options.UseOperationalHours,
		IncludeHolidays:     input.Options.IncludeHolidays,
		DueAt:               plan.DueAt,
		Levels:              levels,
	}
	if err := s.ticketSLAs.Upsert(ctx, record); err != nil {
		return nil, schedule.Plan{}, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventSLADueDateSet, record.TicketID, actor, s.now(), events.SLADueDateSetPayload{
		Priority:            record.Priority,
		StartedAt:           record.StartedAt,
		SLAHours:            record.SLAHours,
		UseOperationalHours: record.UseOperationalHours,
		DueAt:               record.DueAt,
		Checkpoints:         plan.Checkpoints,
	}))
	return record, plan, nil
}

// TicketSLA returns a stored ticket SLA with its status at the service clock.
func (s *SLAService) TicketSLA(ctx context.Context, ticketID string) (*domain.TicketSLA, schedule.Status, error) {
	if s.ticketSLAs == nil {
		return nil, schedule.Status{}, errors.New("ticket SLA storage not configured")
	}
	rec, err := s.ticketSLAs.Get(ctx, strings.TrimSpace(ticketID))
	if err != nil {
		return nil, schedule.Status{}, err
	}
	return rec, schedule.EvaluateStatus(rec.DueAt, s.now(), s.cfg.AtRisk()), nil
}

// ProcessEscalations publishes an escalation event for every passed checkpoint of the open
// ticket SLAs that has not been notified yet. Records whose calendar cannot be loaded are left for
// a later pass. One snapshot serves the whole batch. Per-ticket
// failures are logged and skipped.
func (s *SLAService) ProcessEscalations(ctx context.Context, now time.Time, batch int) (int, error) {
	if s.ticketSLAs == nil {
		return 0, nil
	}
	pending, err := s.ticketSLAs.ListPendingEscalations(ctx, batch)
	if err != nil {
		return 0, err
	}

	var (
		snap      *schedule.Snapshot
		snapErr   error
		loaded    bool
		triggered int
	)
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return triggered, err
		}
		if !rec.HasPendingEscalation() {
			continue
		}
		opts := schedule.Options{UseOperationalHours: rec.UseOperationalHours, IncludeHolidays: rec.IncludeHolidays}
		if (opts.UseOperationalHours || opts.IncludeHolidays) && !loaded {
			snap, snapErr = s.Snapshot(ctx)
			loaded = true
		}
		// A missing calendar only leaves holiday-only records on plain calendar time; any other load
		// failure would silently drop their exclusions.
		if snapErr != nil && (opts.UseOperationalHours || (opts.IncludeHolidays && !errors.Is(snapErr, domain.ErrConfigurationMissing))) {
			s.logger.Warn("skipping escalation check", zap.String("ticket_id", rec.TicketID), zap.Error(snapErr))
			continue
		}

		plan, err := s.escalations.Checkpoints(snap, rec.StartedAt, rec.SLAHours, rec.Levels, opts)
		s.record("escalation_check", err)
		if err != nil {
			s.logger.Warn("escalation plan failed", zap.String("ticket_id", rec.TicketID), zap.Error(err))
			continue
		}

		highest := rec.NotifiedLevel
		for _, cp := range plan.Checkpoints {
			if cp.Level <= rec.NotifiedLevel || cp.At.After(now) {
				continue
			}
			s.publishEvent(ctx, events.NewEvent(events.EventSLAEscalationTriggered, rec.TicketID, events.SystemActor, now,
				events.SLAEscalationTriggeredPayload{
					Level:        cp.Level,
					EscalateType: cp.EscalateType,
					EscalateTo:   cp.EscalateTo,
					CheckpointAt: cp.At,
					DueAt:        plan.DueAt,
					Breached:     now.After(plan.DueAt),
				}))
			highest = cp.Level
			triggered++
		}
		if highest > rec.NotifiedLevel {
			if err := s.ticketSLAs.MarkNotified(ctx, rec.TicketID, highest); err != nil {
				s.logger.Error("mark escalation notified failed", zap.String("ticket_id", rec.TicketID), zap.Error(err))
			}
		}
	}
	return triggered, nil
}

func (s *SLAService) prepare(ctx context.Context, opts schedule.Options) (*schedule.Snapshot, schedule.Options, bool, error) {
	if !opts.UseOperationalHours && !opts.IncludeHolidays {
		return nil, opts, false, nil
	}
	snap, err := s.Snapshot(ctx)
	if err == nil {
		return snap, opts, false, nil
	}
	if !errors.Is(err, domain.ErrConfigurationMissing) {
		return nil, opts, false, err
	}
	if !opts.UseOperationalHours {
		// Nothing to skip without a calendar.
		return nil, opts, false, nil
	}
	if s.cfg.FallbackToCalendar {
		s.logger.Warn("operational hours missing; falling back to calendar time")
		opts.UseOperationalHours = false
		return nil, opts, true, nil
	}
	return nil, opts, false, err
}

func (s *SLAService) record(kind string, err error) {
	s.metrics.RecordCalculation(kind, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConfigurationMissing):
		return "configuration_missing"
	case errors.Is(err, schedule.ErrUnsatisfiableSchedule):
		return "unsatisfiable"
	case errors.Is(err, schedule.ErrInvalidDuration), errors.Is(err, schedule.ErrInvalidEscalationLevels):
		return "invalid"
	default:
		return "error"
	}
}

func (s *SLAService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
}

// referenceDate returns a date in a fixed week falling on wd.
func referenceDate(wd time.Weekday) domain.CivilDate {
	// 2024-01-07 is a Sunday.
	return domain.CivilDate{Year: 2024, Month: time.January, Day: 7 + int(wd)}
}
