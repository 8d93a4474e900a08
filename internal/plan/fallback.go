package plan

import (
	"fmt"
	"math"

	"github.com/5-07/sweeten/internal"
)

var fallbackDays = []internal.DayPlan{
	{Day: "Day 1", Diet: []string{"Choose non-starchy vegetables with each meal", "Limit sugary drinks"}, Exercise: []string{"30-minute brisk walk"}, Wellness: []string{"Drink water frequently"}},
	{Day: "Day 2", Diet: []string{"Prefer whole grains, avoid refined carbs"}, Exercise: []string{"20-30 min light cardio"}, Wellness: []string{"Aim for 7-8 hours sleep"}},
	{Day: "Day 3", Diet: []string{"Include lean protein with meals"}, Exercise: []string{"Resistance exercises 20 min (bodyweight)"}, Wellness: []string{"Practice mindful breathing 5 min"}},
	{Day: "Day 4", Diet: []string{"Reduce portion size of high-carb foods"}, Exercise: []string{"30-minute walk"}, Wellness: []string{"Stay hydrated"}},
	{Day: "Day 5", Diet: []string{"Focus on fiber-rich snacks"}, Exercise: []string{"Interval walking 20 min"}, Wellness: []string{"Avoid late-night heavy meals"}},
	{Day: "Day 6", Diet: []string{"Balance carbs with protein"}, Exercise: []string{"Light strength + mobility"}, Wellness: []string{"Check glucose regularly"}},
	{Day: "Day 7", Diet: []string{"Plan meals for next week (consistent carbs)"}, Exercise: []string{"Active recovery (stretching)"}, Wellness: []string{"Reflect on week and notes"}},
}

// AverageGlucose is the rounded mean of the non-nil glucose readings.
// ok is false when the window has no readings.
func AverageGlucose(entries []internal.VitalEntry) (avg int, ok bool) {
	var sum float64
	var n int
	for _, e := range entries {
		if e.Glucose != nil {
			sum += *e.Glucose
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return int(math.Round(sum / float64(n))), true
}

func fallbackHeader(avg int, ok bool) string {
	if !ok {
		return "Fallback plan (no recent vitals)."
	}
	return fmt.Sprintf("Fallback plan (avg glucose %d mg/dL).", avg)
}

// FallbackPlan builds the fixed 7-day template. Only the header varies,
// and only with the average glucose of entries.
func FallbackPlan(entries []internal.VitalEntry, weekStart string) internal.StructuredPlan {
	days := make([]internal.DayPlan, len(fallbackDays))
	for i, d := range fallbackDays {
		days[i] = internal.DayPlan{
			Day:      d.Day,
			Diet:     append([]string(nil), d.Diet...),
			Exercise: append([]string(nil), d.Exercise...),
			Wellness: append([]string(nil), d.Wellness...),
		}
	}
	return internal.StructuredPlan{
		Source:    internal.PlanSourceFallback,
		Message:   fallbackHeader(AverageGlucose(entries)),
		WeekStart: weekStart,
		DayPlans:  days,
	}
}
