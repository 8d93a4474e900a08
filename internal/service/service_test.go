package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/plan"
	"github.com/5-07/sweeten/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = &internal.User{ID: "u1", Name: "Demo"}

func num(v float64) *float64 { return &v }

func newStore(t *testing.T) *storage.FileStorage {
	t.Helper()
	s, err := storage.NewFileStorage(t.TempDir(), internal.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type stubClient struct {
	text   string
	tokens int
	err    error
	block  chan struct{}
	calls  int
	mu     sync.Mutex
}

func (c *stubClient) Generate(ctx context.Context, prompt string) (plan.Completion, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.block != nil {
		<-c.block
	}
	return plan.Completion{Text: c.text, TokensUsed: c.tokens}, c.err
}

func seedDays(t *testing.T, s storage.VitalsRepository, n int, glucose float64) {
	t.Helper()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		entry := internal.VitalEntry{Date: base.AddDate(0, 0, i).Format(internal.DateLayout), Glucose: num(glucose)}
		require.NoError(t, s.SaveVitals(context.Background(), testUser.ID, entry))
	}
}

func TestSaveVitalsRejectsGhostEntry(t *testing.T) {
	s := newStore(t)
	_, err := SaveVitals(context.Background(), s, testUser, &VitalInput{Date: "2025-03-01", Mood: "  "})
	assert.ErrorIs(t, err, internal.ErrInvalidInput)
}

func TestSaveVitalsValidation(t *testing.T) {
	s := newStore(t)
	cases := map[string]VitalInput{
		"bad date":         {Date: "03/01/2025", Glucose: num(100)},
		"missing date":     {Glucose: num(100)},
		"negative glucose": {Date: "2025-03-01", Glucose: num(-5)},
		"negative steps":   {Date: "2025-03-01", Steps: num(-1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			in := in
			_, err := SaveVitals(context.Background(), s, testUser, &in)
			assert.ErrorIs(t, err, internal.ErrInvalidInput)
		})
	}
}

func TestSaveVitalsOverwritesSameDate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_, err := SaveVitals(ctx, s, testUser, &VitalInput{Date: "2025-03-01", Glucose: num(140), Notes: "first"})
	require.NoError(t, err)
	_, err = SaveVitals(ctx, s, testUser, &VitalInput{Date: "2025-03-01", Steps: num(9000)})
	require.NoError(t, err)

	got, err := GetVitals(ctx, s, testUser, "2025-03-01")
	require.NoError(t, err)
	assert.Nil(t, got.Glucose)
	assert.Empty(t, got.Notes)
	assert.Equal(t, 9000.0, *got.Steps)
}

func TestListVitalsClampsLimit(t *testing.T) {
	s := newStore(t)
	seedDays(t, s, 70, 110)
	ctx := context.Background()

	got, err := ListVitals(ctx, s, testUser, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultVitalsLimit)
	assert.Equal(t, "2025-05-09", got[0].Date)

	got, err = ListVitals(ctx, s, testUser, 500)
	require.NoError(t, err)
	assert.Len(t, got, MaxVitalsLimit)

	got, err = ListVitals(ctx, s, testUser, -3)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "2025-05-09", got[0].Date)
}

func TestGetVitalsBadDate(t *testing.T) {
	s := newStore(t)
	_, err := GetVitals(context.Background(), s, testUser, "yesterday")
	assert.ErrorIs(t, err, internal.ErrInvalidInput)

	_, err = GetVitals(context.Background(), s, testUser, "2025-01-01")
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestProgress(t *testing.T) {
	s := newStore(t)
	seedDays(t, s, 3, 120)
	p, err := Progress(context.Background(), s, testUser, time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, p.FilledDays)
	assert.False(t, p.Unlocked)
	require.NotNil(t, p.Latest)
	assert.Equal(t, "2025-03-03", p.Latest.Date)
}

func newPlanService(s *storage.FileStorage, client plan.TextGenerator) *PlanService {
	fixed := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	gen := plan.NewGenerator(client, plan.WithClock(func() time.Time { return fixed }))
	svc := NewPlanService(s, s, s, gen, internal.NopLogger())
	svc.Now = func() time.Time { return fixed }
	return svc
}

func TestGeneratePlanNoVitals(t *testing.T) {
	s := newStore(t)
	client := &stubClient{text: "plan"}
	svc := newPlanService(s, client)
	ctx := context.Background()

	_, err := svc.Generate(ctx, testUser)
	assert.ErrorIs(t, err, internal.ErrNoVitals)
	assert.Zero(t, client.calls)

	_, err = s.GetPlan(ctx, testUser.ID)
	assert.ErrorIs(t, err, internal.ErrNotFound)
	usage, err := s.ListUsageSince(ctx, testUser.ID, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, usage)
}

func TestGeneratePlanLocked(t *testing.T) {
	s := newStore(t)
	seedDays(t, s, 6, 120)
	client := &stubClient{text: "plan"}
	svc := newPlanService(s, client)

	_, err := svc.Generate(context.Background(), testUser)
	assert.ErrorIs(t, err, internal.ErrPlanLocked)
	assert.Zero(t, client.calls)

	svc.EnforceGate = false
	_, err = svc.Generate(context.Background(), testUser)
	assert.NoError(t, err)
}

func TestGeneratePlanStoresAndRecordsUsage(t *testing.T) {
	s := newStore(t)
	seedDays(t, s, 7, 120)
	svc := newPlanService(s, &stubClient{text: "Eat well.", tokens: 321})
	ctx := context.Background()

	doc, err := svc.Generate(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, internal.PlanSourceGenerated, doc.Source)

	view, err := svc.Current(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, plan.PlainText{Body: "Eat well."}, view.Display)

	usage, err := MonthUsage(ctx, s, testUser, svc.Now(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 321, usage.MonthTokens)
	assert.Equal(t, 679, usage.ApproxLeft)
}

func TestGeneratePlanFallbackIsStored(t *testing.T) {
	s := newStore(t)
	seedDays(t, s, 7, 130)
	svc := newPlanService(s, &stubClient{err: errors.New("quota exceeded")})

	doc, err := svc.Generate(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, internal.PlanSourceFallback, doc.Source)

	var sp internal.StructuredPlan
	require.NoError(t, json.Unmarshal(doc.Plan, &sp))
	assert.Len(t, sp.DayPlans, 7)
	assert.Contains(t, sp.Message, "130")

	view, err := svc.Current(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, plan.KindStructured, view.Display.Kind())
}

func TestGeneratePlanInProgress(t *testing.T) {
	s := newStore(t)
	seedDays(t, s, 7, 120)
	client := &stubClient{text: "plan", block: make(chan struct{})}
	svc := newPlanService(s, client)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), testUser)
		done <- err
	}()
	assert.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Generate(context.Background(), testUser)
	assert.ErrorIs(t, err, internal.ErrGenerationInProgress)

	other := &internal.User{ID: "u2"}
	_, err = svc.Generate(context.Background(), other)
	assert.ErrorIs(t, err, internal.ErrNoVitals)

	close(client.block)
	require.NoError(t, <-done)

	_, err = svc.Generate(context.Background(), testUser)
	assert.NoError(t, err)
}

func TestCurrentPlanNotFound(t *testing.T) {
	s := newStore(t)
	svc := newPlanService(s, nil)
	_, err := svc.Current(context.Background(), testUser)
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestReminders(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := AddReminder(ctx, s, testUser, &ReminderRequest{Text: "   "})
	assert.ErrorIs(t, err, internal.ErrInvalidInput)

	r, err := AddReminder(ctx, s, testUser, &ReminderRequest{Text: "  check glucose  "})
	require.NoError(t, err)
	assert.Equal(t, "check glucose", r.Text)
	assert.NotEmpty(t, r.ID)

	list, err := ListReminders(ctx, s, testUser)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, RemoveReminder(ctx, s, testUser, r.ID))
	require.NoError(t, RemoveReminder(ctx, s, testUser, r.ID))
	require.NoError(t, RemoveReminder(ctx, s, testUser, ""))
	list, err = ListReminders(ctx, s, testUser)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMonthUsage(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	add := func(at time.Time, tokens int) {
		rec := internal.UsageRecord{ID: fmt.Sprint(at.UnixNano()), TokensUsed: tokens, CreatedAt: at}
		require.NoError(t, s.AddUsage(ctx, testUser.ID, rec))
	}
	add(time.Date(2025, 2, 28, 23, 59, 0, 0, time.UTC), 500)
	add(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 100)
	add(time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC), 250)

	now := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)
	u, err := MonthUsage(ctx, s, testUser, now, 300)
	require.NoError(t, err)
	assert.Equal(t, 350, u.MonthTokens)
	assert.Equal(t, 0, u.ApproxLeft)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), u.Since)
}
