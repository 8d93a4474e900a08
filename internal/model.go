package internal

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the key format for vital entries.
const DateLayout = "2006-01-02"

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// VitalEntry is one user's self-reported metrics for one calendar date.
// Numeric fields are nil when the user left them blank.
type VitalEntry struct {
	Date         string    `json:"date" firestore:"date"`
	Glucose      *float64  `json:"glucose" firestore:"glucose"`
	InsulinUnits *float64  `json:"insulinUnits" firestore:"insulinUnits"`
	Carbs        *float64  `json:"carbs" firestore:"carbs"`
	Steps        *float64  `json:"steps" firestore:"steps"`
	Mood         string    `json:"mood" firestore:"mood"`
	Notes        string    `json:"notes" firestore:"notes"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Filled reports whether any vital field carries a value. The date alone
// does not make a logged day.
func (v VitalEntry) Filled() bool {
	for _, n := range []*float64{v.Glucose, v.InsulinUnits, v.Carbs, v.Steps} {
		if n != nil {
			return true
		}
	}
	return strings.TrimSpace(v.Mood) != "" || strings.TrimSpace(v.Notes) != ""
}

const (
	PlanSourceGenerated = "generated"
	PlanSourceFallback  = "fallback"
)

// PlanDocument is the single cached plan per user. Plan holds the raw
// payload: a JSON string for generated text or a structured object.
type PlanDocument struct {
	Plan        json.RawMessage `json:"plan"`
	Source      string          `json:"source,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// StructuredPlan is the day-by-day payload shape.
type StructuredPlan struct {
	Source    string    `json:"source,omitempty"`
	Message   string    `json:"message,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	WeekStart string    `json:"weekStart,omitempty"`
	DayPlans  []DayPlan `json:"dayPlans"`
}

type DayPlan struct {
	Day      string   `json:"day"`
	Diet     []string `json:"diet"`
	Exercise []string `json:"exercise"`
	Wellness []string `json:"wellness"`
}

type Reminder struct {
	ID        string    `json:"id" firestore:"-"`
	Text      string    `json:"text" firestore:"text"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// UsageRecord counts tokens spent by one generation call.
type UsageRecord struct {
	ID         string    `json:"id" firestore:"-"`
	TokensUsed int       `json:"tokensUsed" firestore:"tokensUsed"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt"`
}
