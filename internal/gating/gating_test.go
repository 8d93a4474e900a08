package gating

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/stretchr/testify/assert"
)

func num(v float64) *float64 { return &v }

func filledEntries(n int) []internal.VitalEntry {
	out := make([]internal.VitalEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, internal.VitalEntry{
			Date:    fmt.Sprintf("2024-01-%02d", i+1),
			Glucose: num(100 + float64(i)),
		})
	}
	return out
}

func TestComputeFilledDaysEmpty(t *testing.T) {
	assert.Equal(t, 0, ComputeFilledDays(nil))
	assert.False(t, PlanUnlocked(ComputeFilledDays(nil)))
}

func TestGhostRecordNotCounted(t *testing.T) {
	entries := []internal.VitalEntry{
		{Date: "2024-01-01"},
		{Date: "2024-01-02", Mood: "   ", Notes: "\t"},
		{Date: "2024-01-03", Notes: "ok"},
	}
	assert.Equal(t, 1, ComputeFilledDays(entries))
}

func TestSingleFieldCounts(t *testing.T) {
	cases := []internal.VitalEntry{
		{Date: "d", Glucose: num(0)},
		{Date: "d", InsulinUnits: num(4)},
		{Date: "d", Carbs: num(30)},
		{Date: "d", Steps: num(1000)},
		{Date: "d", Mood: "happy"},
		{Date: "d", Notes: "ok"},
	}
	for _, e := range cases {
		assert.Equal(t, 1, ComputeFilledDays([]internal.VitalEntry{e}))
	}
}

func TestDateCountedOnce(t *testing.T) {
	entries := []internal.VitalEntry{
		{Date: "2024-01-01", Notes: "a"},
		{Date: "2024-01-01", Notes: "b"},
		{Date: "2024-01-01"},
	}
	assert.Equal(t, 1, ComputeFilledDays(entries))
}

func TestOrderIndependent(t *testing.T) {
	entries := append(filledEntries(9), internal.VitalEntry{Date: "2024-02-01"}, internal.VitalEntry{Date: "2024-01-03", Notes: "dup"})
	want := ComputeFilledDays(entries)
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]internal.VitalEntry(nil), entries...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, ComputeFilledDays(shuffled))
	}
	assert.Equal(t, 9, want)
}

func TestUnlockBoundary(t *testing.T) {
	assert.False(t, PlanUnlocked(ComputeFilledDays(filledEntries(6))))
	assert.True(t, PlanUnlocked(ComputeFilledDays(filledEntries(7))))
}

func TestProgress(t *testing.T) {
	today := time.Date(2024, 1, 7, 15, 0, 0, 0, time.UTC)
	entries := []internal.VitalEntry{
		{Date: "2024-01-07", Notes: "today"},
		{Date: "2024-01-03", Steps: num(500)},
		{Date: "2024-01-02"},
		{Date: "2023-12-25", Notes: "outside window"},
	}
	days := Progress(entries, today, 7)
	assert.Len(t, days, 7)
	assert.Equal(t, "2024-01-01", days[0].Date)
	assert.Equal(t, "2024-01-07", days[6].Date)
	filled := 0
	for _, d := range days {
		if d.Filled {
			filled++
		}
	}
	assert.Equal(t, 2, filled)
	assert.True(t, days[2].Filled)
	assert.False(t, days[1].Filled)
}

func TestSummarize(t *testing.T) {
	s := Summarize(filledEntries(9), time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 9, s.FilledDays)
	assert.Equal(t, 7, s.DaysShown)
	assert.Equal(t, RequiredDays, s.RequiredDays)
	assert.True(t, s.Unlocked)
	assert.Len(t, s.Days, 7)
}
