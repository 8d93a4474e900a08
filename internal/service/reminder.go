package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/storage"
	"github.com/google/uuid"
)

type ReminderRequest struct {
	Text string `validate:"required,max=280"`
}

func AddReminder(ctx context.Context, repo storage.ReminderRepository, user *internal.User, req *ReminderRequest) (*internal.Reminder, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validate.Struct(req); err != nil {
		return nil, invalid(err)
	}
	r := internal.Reminder{
		ID:        uuid.NewString(),
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.AddReminder(ctx, user.ID, r); err != nil {
		return nil, fmt.Errorf("add reminder: %w", err)
	}
	return &r, nil
}

func ListReminders(ctx context.Context, repo storage.ReminderRepository, user *internal.User) ([]internal.Reminder, error) {
	return repo.ListReminders(ctx, user.ID)
}

// RemoveReminder is a no-op for ids that do not exist.
func RemoveReminder(ctx context.Context, repo storage.ReminderRepository, user *internal.User, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return repo.DeleteReminder(ctx, user.ID, id)
}
