package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/gating"
	"github.com/5-07/sweeten/internal/storage"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	DefaultVitalsLimit = 14
	MaxVitalsLimit     = 60
)

type VitalInput struct {
	Date         string   `validate:"required,datetime=2006-01-02"`
	Glucose      *float64 `validate:"omitempty,gte=0,lte=2000"`
	InsulinUnits *float64 `validate:"omitempty,gte=0,lte=500"`
	Carbs        *float64 `validate:"omitempty,gte=0,lte=2000"`
	Steps        *float64 `validate:"omitempty,gte=0,lte=200000"`
	Mood         string   `validate:"max=32"`
	Notes        string   `validate:"max=2000"`
}

type VitalsProgress struct {
	gating.Summary
	Latest *internal.VitalEntry `json:"latest"`
}

func invalid(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", internal.ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", internal.ErrInvalidInput, err)
}

func ValidateVitalInput(in *VitalInput) error {
	in.Date = strings.TrimSpace(in.Date)
	in.Mood = strings.TrimSpace(in.Mood)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validate.Struct(in); err != nil {
		return invalid(err)
	}
	return nil
}

// SaveVitals stores the entry for in.Date, replacing any earlier save for
// that date.
func SaveVitals(ctx context.Context, repo storage.VitalsRepository, user *internal.User, in *VitalInput) (*internal.VitalEntry, error) {
	if err := ValidateVitalInput(in); err != nil {
		return nil, err
	}
	entry := internal.VitalEntry{
		Date:         in.Date,
		Glucose:      in.Glucose,
		InsulinUnits: in.InsulinUnits,
		Carbs:        in.Carbs,
		Steps:        in.Steps,
		Mood:         in.Mood,
		Notes:        in.Notes,
		UpdatedAt:    time.Now().UTC(),
	}
	if !entry.Filled() {
		return nil, fmt.Errorf("%w: entry has no values", internal.ErrInvalidInput)
	}
	if err := repo.SaveVitals(ctx, user.ID, entry); err != nil {
		return nil, fmt.Errorf("save vitals: %w", err)
	}
	return &entry, nil
}

// ListVitals returns entries newest first. A zero limit means the default;
// anything else is clamped to [1, MaxVitalsLimit].
func ListVitals(ctx context.Context, repo storage.VitalsRepository, user *internal.User, limit int) ([]internal.VitalEntry, error) {
	if limit == 0 {
		limit = DefaultVitalsLimit
	}
	limit = max(1, min(limit, MaxVitalsLimit))
	return repo.ListRecentVitals(ctx, user.ID, limit)
}

func GetVitals(ctx context.Context, repo storage.VitalsRepository, user *internal.User, date string) (*internal.VitalEntry, error) {
	if _, err := time.Parse(internal.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", internal.ErrInvalidInput)
	}
	return repo.GetVitals(ctx, user.ID, date)
}

// Progress computes the gate over the most recent entries.
func Progress(ctx context.Context, repo storage.VitalsRepository, user *internal.User, today time.Time) (*VitalsProgress, error) {
	entries, err := repo.ListRecentVitals(ctx, user.ID, DefaultVitalsLimit)
	if err != nil {
		return nil, err
	}
	p := &VitalsProgress{Summary: gating.Summarize(entries, today)}
	if len(entries) > 0 {
		latest := entries[0]
		p.Latest = &latest
	}
	return p, nil
}
