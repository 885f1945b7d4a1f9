package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// OperationalHoursRepository loads the active business calendar.
type OperationalHoursRepository interface {
	// GetActive returns the active configuration with its working days, breaks and exclusion
	// rules, or domain.ErrConfigurationMissing.
	GetActive(ctx context.Context) (*domain.OperationalHoursConfig, error)
}

type operationalHoursRepository struct {
	pool *pgxpool.Pool
}

// NewOperationalHoursRepository instantiates repository.
func NewOperationalHoursRepository(pool *pgxpool.Pool) OperationalHoursRepository {
	return &operationalHoursRepository{pool: pool}
}

// GetActive reads the whole configuration graph inside one read-only repeatable-read
// transaction, so a concurrent edit is never observed half applied.
func (r *operationalHoursRepository) GetActive(ctx context.Context) (*domain.OperationalHoursConfig, error) {
	if r.pool == nil {
		return nil, domain.ErrConfigurationMissing
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin operational hours read: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cfg, err := loadConfig(ctx, tx)
	if err != nil {
		return nil, err
	}
	if cfg.WorkingDays, err = loadWorkingDays(ctx, tx, cfg.ID); err != nil {
		return nil, err
	}
	if cfg.ExclusionRules, err = loadExclusionRules(ctx, tx, cfg.ID); err != nil {
		return nil, err
	}
	holidays, err := loadHolidays(ctx, tx)
	if err != nil {
		return nil, err
	}
	for _, h := range holidays {
		cfg.ExclusionRules = append(cfg.ExclusionRules, h.ExclusionRule())
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit operational hours read: %w", err)
	}
	return cfg, nil
}

func loadConfig(ctx context.Context, tx pgx.Tx) (*domain.OperationalHoursConfig, error) {
	const query = `
        SELECT id, mode, standard_start, standard_end, standard_break_start, standard_break_end, is_active, updated_at
        FROM operational_hours
        WHERE is_active
        ORDER BY updated_at DESC
        LIMIT 1`
	var (
		cfg                  domain.OperationalHoursConfig
		mode                 string
		start, end           int16
		breakStart, breakEnd *int16
	)
	err := tx.QueryRow(ctx, query).Scan(&cfg.ID, &mode, &start, &end, &breakStart, &breakEnd, &cfg.IsActive, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConfigurationMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load operational hours: %w", err)
	}
	cfg.Mode = domain.WorkingTimeMode(mode)
	cfg.StandardStart = domain.TimeOfDay(start)
	cfg.StandardEnd = domain.TimeOfDay(end)
	cfg.StandardBreakStart = timeOfDayPtr(breakStart)
	cfg.StandardBreakEnd = timeOfDayPtr(breakEnd)
	return &cfg, nil
}

func loadWorkingDays(ctx context.Context, tx pgx.Tx, configID int64) ([]domain.WorkingDay, error) {
	const daysQuery = `
        SELECT id, day_of_week, enabled, schedule_type, custom_start, custom_end
        FROM working_days
        WHERE operational_hours_id=$1
        ORDER BY day_of_week`
	rows, err := tx.Query(ctx, daysQuery, configID)
	if err != nil {
		return nil, fmt.Errorf("load working days: %w", err)
	}
	defer rows.Close()

	var days []domain.WorkingDay
	index := map[int64]int{}
	for rows.Next() {
		var (
			day                    domain.WorkingDay
			weekday                int16
			scheduleType           string
			customStart, customEnd *int16
		)
		if err := rows.Scan(&day.ID, &weekday, &day.Enabled, &scheduleType, &customStart, &customEnd); err != nil {
			return nil, err
		}
		day.DayOfWeek = time.Weekday(weekday)
		day.ScheduleType = domain.ScheduleType(scheduleType)
		day.CustomStart = timeOfDayPtr(customStart)
		day.CustomEnd = timeOfDayPtr(customEnd)
		index[day.ID] = len(days)
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const breaksQuery = `
        SELECT b.id, b.working_day_id, b.start_minute, b.end_minute
        FROM break_intervals b
        JOIN working_days wd ON wd.id = b.working_day_id
        WHERE wd.operational_hours_id=$1
        ORDER BY b.working_day_id, b.start_minute`
	breakRows, err := tx.Query(ctx, breaksQuery, configID)
	if err != nil {
		return nil, fmt.Errorf("load break intervals: %w", err)
	}
	defer breakRows.Close()

	for breakRows.Next() {
		var (
			id, dayID  int64
			start, end int16
		)
		if err := breakRows.Scan(&id, &dayID, &start, &end); err != nil {
			return nil, err
		}
		i, ok := index[dayID]
		if !ok {
			continue
		}
		days[i].Breaks = append(days[i].Breaks, domain.BreakInterval{
			ID:    id,
			Start: domain.TimeOfDay(start),
			End:   domain.TimeOfDay(end),
		})
	}
	return days, breakRows.Err()
}

func loadExclusionRules(ctx context.Context, tx pgx.Tx, configID int64) ([]domain.ExclusionRule, error) {
	const query = `
        SELECT id, name, kind, rule_date, recur_yearly, weekday, weeks, months
        FROM exclusion_rules
        WHERE operational_hours_id=$1
        ORDER BY id`
	rows, err := tx.Query(ctx, query, configID)
	if err != nil {
		return nil, fmt.Errorf("load exclusion rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.ExclusionRule
	for rows.Next() {
		var (
			rule    domain.ExclusionRule
			kind    string
			date    *time.Time
			weekday *int16
			weeks   []int32
			months  []int32
		)
		if err := rows.Scan(&rule.ID, &rule.Name, &kind, &date, &rule.RecurYearly, &weekday, &weeks, &months); err != nil {
			return nil, err
		}
		rule.Kind = domain.ExclusionKind(kind)
		if date != nil {
			d := domain.DateOf(*date)
			rule.Date = &d
		}
		if weekday != nil {
			wd := time.Weekday(*weekday)
			rule.Weekday = &wd
		}
		for _, w := range weeks {
			rule.Weeks = append(rule.Weeks, int(w))
		}
		for _, m := range months {
			rule.Months = append(rule.Months, time.Month(m))
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func loadHolidays(ctx context.Context, tx pgx.Tx) ([]domain.Holiday, error) {
	const query = `
        SELECT id, name, holiday_date, is_recurring, is_active
        FROM holidays
        WHERE is_active
        ORDER BY holiday_date`
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	defer rows.Close()

	var holidays []domain.Holiday
	for rows.Next() {
		var (
			h    domain.Holiday
			date time.Time
		)
		if err := rows.Scan(&h.ID, &h.Name, &date, &h.IsRecurring, &h.IsActive); err != nil {
			return nil, err
		}
		h.Date = domain.DateOf(date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func timeOfDayPtr(v *int16) *domain.TimeOfDay {
	if v == nil {
		return nil
	}
	tod := domain.TimeOfDay(*v)
	return &tod
}
