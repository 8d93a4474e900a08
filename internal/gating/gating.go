// Package gating decides when the weekly plan unlocks and reports the
// day-by-day fill status shown on the progress bar.
package gating

import (
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/samber/lo"
)

// RequiredDays is the number of filled days that unlocks the plan.
const RequiredDays = 7

type DayStatus struct {
	Date   string `json:"date"`
	Filled bool   `json:"filled"`
}

type Summary struct {
	FilledDays   int         `json:"filledDays"`
	RequiredDays int         `json:"requiredDays"`
	DaysShown    int         `json:"daysShown"`
	Unlocked     bool        `json:"unlocked"`
	Days         []DayStatus `json:"days"`
}

// ComputeFilledDays counts distinct dates with at least one filled entry.
// The result does not depend on input order.
func ComputeFilledDays(entries []internal.VitalEntry) int {
	filled := lo.Filter(entries, func(e internal.VitalEntry, _ int) bool {
		return e.Filled()
	})
	return len(lo.UniqBy(filled, func(e internal.VitalEntry) string {
		return e.Date
	}))
}

func PlanUnlocked(filledDays int) bool {
	return filledDays >= RequiredDays
}

// Progress returns the fill status of the given number of calendar days
// ending at today, oldest first.
func Progress(entries []internal.VitalEntry, today time.Time, days int) []DayStatus {
	filled := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Filled() {
			filled[e.Date] = true
		}
	}
	out := make([]DayStatus, 0, days)
	start := today.AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format(internal.DateLayout)
		out = append(out, DayStatus{Date: d, Filled: filled[d]})
	}
	return out
}

func Summarize(entries []internal.VitalEntry, today time.Time) Summary {
	n := ComputeFilledDays(entries)
	return Summary{
		FilledDays:   n,
		RequiredDays: RequiredDays,
		DaysShown:    min(n, RequiredDays),
		Unlocked:     PlanUnlocked(n),
		Days:         Progress(entries, today, RequiredDays),
	}
}
