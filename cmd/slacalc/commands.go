package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/schedule"
)

type rootOptions struct {
	configPath string
	timezone   string
	lookahead  int
	verbose    bool
}

// calendarFlags select the accrual mode for a single command.
type calendarFlags struct {
	calendar bool
	holidays bool
}

func (f calendarFlags) options() schedule.Options {
	return schedule.Options{UseOperationalHours: !f.calendar, IncludeHolidays: f.holidays}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "slacalc",
		Short:         "Compute helpdesk SLA due dates against a calendar file",
		Long:          `slacalc evaluates due dates, escalation checkpoints and working windows using an operational hours YAML file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "calendar.yaml", "operational hours YAML file")
	root.PersistentFlags().StringVar(&opts.timezone, "timezone", "UTC", "IANA zone of the calendar")
	root.PersistentFlags().IntVar(&opts.lookahead, "max-lookahead-days", 3*366, "days to scan before giving up")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log configuration warnings to stderr")

	root.AddCommand(newDueCmd(opts), newCheckpointsCmd(opts), newWindowCmd(opts))
	return root
}

func newDueCmd(opts *rootOptions) *cobra.Command {
	var (
		start string
		hours float64
		flags calendarFlags
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Print the due date for a start instant and SLA hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			startAt, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			snap, err := opts.snapshot(cmd.Context(), flags.options())
			if err != nil {
				return err
			}
			due, err := schedule.NewCalculator(opts.lookahead).DueDate(snap, startAt, hours, flags.options())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"start":                 startAt,
				"duration_hours":        hours,
				"use_operational_hours": !flags.calendar,
				"due_at":                due,
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start instant (RFC 3339)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "SLA duration in hours")
	cmd.Flags().BoolVar(&flags.calendar, "calendar", false, "accrue calendar time instead of operational hours")
	cmd.Flags().BoolVar(&flags.holidays, "holidays", false, "skip excluded dates in calendar time")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("hours")
	return cmd
}

func newCheckpointsCmd(opts *rootOptions) *cobra.Command {
	var (
		start    string
		slaHours float64
		levels   []string
		flags    calendarFlags
	)
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Print the escalation checkpoints of an SLA",
		Example: `  slacalc checkpoints --start 2024-03-15T10:13:00Z --sla-hours 24 \
    --level before:2:TEAM_LEAD --level after:4:ADMIN`,
		RunE: func(cmd *cobra.Command, args []string) error {
			startAt, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			parsed, err := parseLevels(levels)
			if err != nil {
				return err
			}
			snap, err := opts.snapshot(cmd.Context(), flags.options())
			if err != nil {
				return err
			}
			plan, err := schedule.NewEscalationScheduler(schedule.NewCalculator(opts.lookahead)).
				Checkpoints(snap, startAt, slaHours, parsed, flags.options())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), plan)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start instant (RFC 3339)")
	cmd.Flags().Float64Var(&slaHours, "sla-hours", 0, "SLA duration in hours")
	cmd.Flags().StringArrayVar(&levels, "level", nil, "escalation level as type:offset[:recipient,...]; levels are numbered in flag order")
	cmd.Flags().BoolVar(&flags.calendar, "calendar", false, "accrue calendar time instead of operational hours")
	cmd.Flags().BoolVar(&flags.holidays, "holidays", false, "skip excluded dates in calendar time")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("sla-hours")
	return cmd
}

func newWindowCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Print the working window of a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := domain.ParseCivilDate(date)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			snap, err := opts.snapshot(cmd.Context(), schedule.Options{UseOperationalHours: true})
			if err != nil {
				return err
			}
			w := snap.WindowFor(d)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"window":           w,
				"capacity_minutes": w.Capacity(),
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "calendar date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// snapshot loads the calendar file unless plain calendar time makes it unnecessary.
func (o *rootOptions) snapshot(ctx context.Context, opts schedule.Options) (*schedule.Snapshot, error) {
	if !opts.UseOperationalHours && !opts.IncludeHolidays {
		return nil, nil
	}
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --timezone: %w", err)
	}
	cfg, err := repository.NewFileOperationalHoursRepository(o.configPath).GetActive(ctx)
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop()
	if o.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}
	return schedule.NewSnapshot(cfg, loc, logger)
}

// parseLevels reads type:offset[:recipient,...] definitions, numbering them from 1.
func parseLevels(raw []string) ([]domain.EscalationLevel, error) {
	levels := make([]domain.EscalationLevel, 0, len(raw))
	for i, item := range raw {
		parts := strings.SplitN(item, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid --level %q: want type:offset", item)
		}
		typ := domain.EscalateType(strings.ToLower(strings.TrimSpace(parts[0])))
		if typ != domain.EscalateBefore && typ != domain.EscalateAfter {
			return nil, fmt.Errorf("invalid --level %q: type must be before or after", item)
		}
		offset, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --level %q: %w", item, err)
		}
		level := domain.EscalationLevel{Level: i + 1, OffsetHours: offset, EscalateType: typ}
		if len(parts) == 3 {
			for _, to := range strings.Split(parts[2], ",") {
				if to = strings.TrimSpace(to); to != "" {
					level.EscalateTo = append(level.EscalateTo, to)
				}
			}
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
