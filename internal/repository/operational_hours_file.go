package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

type calendarFile struct {
	domain.OperationalHoursConfig `yaml:",inline"`
	Holidays                      []calendarHoliday `yaml:"holidays"`
}

type calendarHoliday struct {
	Name      string           `yaml:"name"`
	Date      domain.CivilDate `yaml:"date"`
	Recurring bool             `yaml:"recurring"`
	Inactive  bool             `yaml:"inactive"`
}

type fileOperationalHoursRepository struct {
	path string
}

// NewFileOperationalHoursRepository serves the calendar from a YAML document. The file is
// re-read on every call so edits apply without a restart.
func NewFileOperationalHoursRepository(path string) OperationalHoursRepository {
	return &fileOperationalHoursRepository{path: path}
}

func (r *fileOperationalHoursRepository) GetActive(ctx context.Context) (*domain.OperationalHoursConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", domain.ErrConfigurationMissing, r.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read calendar file: %w", err)
	}
	cfg, err := ParseCalendar(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	if info, statErr := os.Stat(r.path); statErr == nil {
		cfg.UpdatedAt = info.ModTime()
	}
	return cfg, nil
}

// ParseCalendar decodes a YAML calendar document. Unknown keys are rejected and holidays are
// folded into the exclusion rules.
func ParseCalendar(raw []byte) (*domain.OperationalHoursConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var doc calendarFile
	doc.IsActive = true
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if !doc.IsActive {
		return nil, domain.ErrConfigurationMissing
	}

	cfg := doc.OperationalHoursConfig
	for _, h := range doc.Holidays {
		if h.Inactive {
			continue
		}
		holiday := domain.Holiday{Name: h.Name, Date: h.Date, IsRecurring: h.Recurring, IsActive: true}
		cfg.ExclusionRules = append(cfg.ExclusionRules, holiday.ExclusionRule())
	}
	return &cfg, nil
}
