package storage

import (
	"context"
	"time"

	"github.com/5-07/sweeten/internal"
)

// VitalsRepository keeps at most one entry per user and date. Saving an
// existing date replaces it.
type VitalsRepository interface {
	SaveVitals(ctx context.Context, userID string, entry internal.VitalEntry) error
	GetVitals(ctx context.Context, userID, date string) (*internal.VitalEntry, error)
	// ListRecentVitals returns entries newest first. limit <= 0 means all.
	ListRecentVitals(ctx context.Context, userID string, limit int) ([]internal.VitalEntry, error)
}

type PlanRepository interface {
	SavePlan(ctx context.Context, userID string, doc internal.PlanDocument) error
	GetPlan(ctx context.Context, userID string) (*internal.PlanDocument, error)
}

type ReminderRepository interface {
	AddReminder(ctx context.Context, userID string, r internal.Reminder) error
	ListReminders(ctx context.Context, userID string) ([]internal.Reminder, error)
	// DeleteReminder succeeds when the reminder is already gone.
	DeleteReminder(ctx context.Context, userID, id string) error
}

type UsageRepository interface {
	AddUsage(ctx context.Context, userID string, rec internal.UsageRecord) error
	ListUsageSince(ctx context.Context, userID string, since time.Time) ([]internal.UsageRecord, error)
}

// Store is a backend serving every repository.
type Store interface {
	VitalsRepository
	PlanRepository
	ReminderRepository
	UsageRepository
	Close() error
}
