package service

import (
	"context"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/storage"
	"github.com/samber/lo"
)

type Usage struct {
	MonthTokens int       `json:"monthTokens"`
	ApproxLeft  int       `json:"approxLeft"`
	Ceiling     int       `json:"ceiling"`
	Since       time.Time `json:"since"`
}

// MonthUsage sums the tokens the user spent since the start of now's month
// (UTC) against the monthly ceiling.
func MonthUsage(ctx context.Context, repo storage.UsageRepository, user *internal.User, now time.Time, ceiling int) (*Usage, error) {
	now = now.UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	records, err := repo.ListUsageSince(ctx, user.ID, since)
	if err != nil {
		return nil, err
	}
	total := lo.SumBy(records, func(r internal.UsageRecord) int { return r.TokensUsed })
	return &Usage{
		MonthTokens: total,
		ApproxLeft:  max(0, ceiling-total),
		Ceiling:     ceiling,
		Since:       since,
	}, nil
}
