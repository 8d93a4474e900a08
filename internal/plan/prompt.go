package plan

import (
	"encoding/json"
	"fmt"

	"github.com/5-07/sweeten/internal"
)

// MaxWindow bounds how many entries go into a prompt.
const MaxWindow = 14

const promptTemplate = `Generate a detailed, personalized weekly diabetes management plan based on the following daily vitals (newest first):
%s

Include practical dietary, insulin, and exercise suggestions for each day of the week.
Keep it under 200 words.
Your reply is shown to the user verbatim as their plan text, so answer with the plan only.`

type promptEntry struct {
	Date         string   `json:"date"`
	Glucose      *float64 `json:"glucose,omitempty"`
	InsulinUnits *float64 `json:"insulinUnits,omitempty"`
	Carbs        *float64 `json:"carbs,omitempty"`
	Steps        *float64 `json:"steps,omitempty"`
	Mood         string   `json:"mood,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// BuildPrompt serializes at most MaxWindow entries, in the order given,
// into the plan request.
func BuildPrompt(entries []internal.VitalEntry) (string, error) {
	if len(entries) > MaxWindow {
		entries = entries[:MaxWindow]
	}
	rows := make([]promptEntry, len(entries))
	for i, e := range entries {
		rows[i] = promptEntry{
			Date:         e.Date,
			Glucose:      e.Glucose,
			InsulinUnits: e.InsulinUnits,
			Carbs:        e.Carbs,
			Steps:        e.Steps,
			Mood:         e.Mood,
			Notes:        e.Notes,
		}
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("plan: encode vitals: %w", err)
	}
	return fmt.Sprintf(promptTemplate, b), nil
}
