package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(v float64) *float64 { return &v }

func setupTestStorage(t *testing.T, dir string) *FileStorage {
	t.Helper()
	s, err := NewFileStorage(dir, internal.NopLogger())
	require.NoError(t, err)
	return s
}

func TestSaveVitalsOverwritesSameDate(t *testing.T) {
	s := setupTestStorage(t, t.TempDir())
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.SaveVitals(ctx, "u1", internal.VitalEntry{Date: "2024-01-01", Glucose: num(100)}))
	require.NoError(t, s.SaveVitals(ctx, "u1", internal.VitalEntry{Date: "2024-01-01", Glucose: num(110)}))

	all, err := s.ListRecentVitals(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 110.0, *all[0].Glucose)
}

func TestListRecentVitalsNewestFirst(t *testing.T) {
	s := setupTestStorage(t, t.TempDir())
	defer s.Close()
	ctx := context.Background()
	for _, d := range []string{"2024-01-03", "2024-01-01", "2024-01-05", "2024-01-02"} {
		require.NoError(t, s.SaveVitals(ctx, "u1", internal.VitalEntry{Date: d, Notes: d}))
	}
	require.NoError(t, s.SaveVitals(ctx, "u2", internal.VitalEntry{Date: "2024-02-01", Notes: "other"}))

	got, err := s.ListRecentVitals(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-01-05", got[0].Date)
	assert.Equal(t, "2024-01-03", got[1].Date)
	assert.Equal(t, "2024-01-02", got[2].Date)

	empty, err := s.ListRecentVitals(ctx, "nobody", 14)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetVitalsNotFound(t *testing.T) {
	s := setupTestStorage(t, t.TempDir())
	defer s.Close()
	_, err := s.GetVitals(context.Background(), "u1", "2024-01-01")
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestPlanOverwrite(t *testing.T) {
	s := setupTestStorage(t, t.TempDir())
	defer s.Close()
	ctx := context.Background()

	_, err := s.GetPlan(ctx, "u1")
	assert.ErrorIs(t, err, internal.ErrNotFound)

	require.NoError(t, s.SavePlan(ctx, "u1", internal.PlanDocument{Plan: json.RawMessage(`"first"`), Source: internal.PlanSourceGenerated}))
	require.NoError(t, s.SavePlan(ctx, "u1", internal.PlanDocument{Plan: json.RawMessage(`"second"`), Source: internal.PlanSourceGenerated}))
	got, err := s.GetPlan(ctx, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `"second"`, string(got.Plan))
}

func TestRemindersAddListDelete(t *testing.T) {
	s := setupTestStorage(t, t.TempDir())
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.AddReminder(ctx, "u1", internal.Reminder{ID: "a", Text: "check feet"}))
	require.NoError(t, s.AddReminder(ctx, "u1", internal.Reminder{ID: "b", Text: "refill insulin"}))

	rs, err := s.ListReminders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "a", rs[0].ID)

	require.NoError(t, s.DeleteReminder(ctx, "u1", "a"))
	require.NoError(t, s.DeleteReminder(ctx, "u1", "a"))
	require.NoError(t, s.DeleteReminder(ctx, "u1", "missing"))
	rs, err = s.ListReminders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "b", rs[0].ID)
}

func TestUsageSince(t *testing.T) {
	s := setupTestStorage(t, t.TempDir())
	defer s.Close()
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddUsage(ctx, "u1", internal.UsageRecord{ID: "1", TokensUsed: 10, CreatedAt: start.Add(-time.Second)}))
	require.NoError(t, s.AddUsage(ctx, "u1", internal.UsageRecord{ID: "2", TokensUsed: 20, CreatedAt: start}))
	require.NoError(t, s.AddUsage(ctx, "u1", internal.UsageRecord{ID: "3", TokensUsed: 30, CreatedAt: start.Add(time.Hour)}))

	got, err := s.ListUsageSince(ctx, "u1", start)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := setupTestStorage(t, dir)
	require.NoError(t, s.SaveVitals(ctx, "u1", internal.VitalEntry{Date: "2024-01-01", Carbs: num(45), Mood: "ok"}))
	require.NoError(t, s.SavePlan(ctx, "u1", internal.PlanDocument{Plan: json.RawMessage(`{"dayPlans":[]}`), Source: internal.PlanSourceFallback}))
	require.NoError(t, s.AddReminder(ctx, "u1", internal.Reminder{ID: "r1", Text: "walk"}))
	require.NoError(t, s.AddUsage(ctx, "u1", internal.UsageRecord{ID: "x", TokensUsed: 5, CreatedAt: time.Now()}))
	require.NoError(t, s.Close())

	info, err := os.Stat(filepath.Join(dir, "vitals.json"))
	require.NoError(t, err)
	assert.True(t, info.Size() > 0)

	s2 := setupTestStorage(t, dir)
	defer s2.Close()
	v, err := s2.GetVitals(ctx, "u1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 45.0, *v.Carbs)
	assert.Nil(t, v.Glucose)

	p, err := s2.GetPlan(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, internal.PlanSourceFallback, p.Source)
	assert.JSONEq(t, `{"dayPlans":[]}`, string(p.Plan))

	rs, err := s2.ListReminders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, rs, 1)

	us, err := s2.ListUsageSince(ctx, "u1", time.Time{})
	require.NoError(t, err)
	assert.Len(t, us, 1)
}

func TestDebouncedFlushWritesFile(t *testing.T) {
	dir := t.TempDir()
	s := setupTestStorage(t, dir)
	defer s.Close()
	require.NoError(t, s.SaveVitals(context.Background(), "u1", internal.VitalEntry{Date: "2024-01-01", Notes: "x"}))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "vitals.json"))
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)
}
