package plan

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/5-07/sweeten/internal"
)

type Kind string

const (
	KindPlainText    Kind = "text"
	KindStructured   Kind = "structured"
	KindUnrecognized Kind = "raw"
)

// DisplayPlan is a stored plan payload after normalization. It is one of
// PlainText, Structured or Unrecognized.
type DisplayPlan interface {
	Kind() Kind
	// Text renders the plan as plain text.
	Text() string
	display()
}

type PlainText struct {
	Body string
}

// DaySection is one collapsible day in the plan view.
type DaySection struct {
	Title    string   `json:"title"`
	Diet     []string `json:"diet"`
	Exercise []string `json:"exercise"`
	Wellness []string `json:"wellness"`
}

type Structured struct {
	Source    string
	Message   string
	Summary   string
	WeekStart string
	WeekLabel string
	Days      []DaySection
}

// Unrecognized carries the payload as indented JSON for a preformatted view.
type Unrecognized struct {
	Raw string
}

func (PlainText) Kind() Kind    { return KindPlainText }
func (Structured) Kind() Kind   { return KindStructured }
func (Unrecognized) Kind() Kind { return KindUnrecognized }

func (PlainText) display()    {}
func (Structured) display()   {}
func (Unrecognized) display() {}

func (p PlainText) Text() string    { return p.Body }
func (u Unrecognized) Text() string { return u.Raw }

func (s Structured) Text() string {
	var b strings.Builder
	for _, line := range []string{s.Message, s.Summary} {
		if line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	for _, d := range s.Days {
		b.WriteString(d.Title)
		b.WriteString("\n")
		writeBullets(&b, "Diet", d.Diet)
		writeBullets(&b, "Exercise", d.Exercise)
		writeBullets(&b, "Wellness", d.Wellness)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeBullets(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("  " + label + ":\n")
	for _, it := range items {
		b.WriteString("    - " + it + "\n")
	}
}

func (p PlainText) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind Kind   `json:"kind"`
		Text string `json:"text"`
	}{p.Kind(), p.Body})
}

func (s Structured) MarshalJSON() ([]byte, error) {
	days := s.Days
	if days == nil {
		days = []DaySection{}
	}
	return json.Marshal(struct {
		Kind      Kind         `json:"kind"`
		Source    string       `json:"source,omitempty"`
		Message   string       `json:"message,omitempty"`
		Summary   string       `json:"summary,omitempty"`
		WeekStart string       `json:"weekStart"`
		WeekLabel string       `json:"weekLabel"`
		Days      []DaySection `json:"days"`
	}{s.Kind(), s.Source, s.Message, s.Summary, s.WeekStart, s.WeekLabel, days})
}

func (u Unrecognized) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind Kind   `json:"kind"`
		Raw  string `json:"raw"`
	}{u.Kind(), u.Raw})
}

// Normalize decides the display shape of a stored plan payload.
func Normalize(raw []byte) DisplayPlan {
	return NormalizeAt(raw, time.Now())
}

// NormalizeAt is Normalize with the date used when the payload has no
// week start.
func NormalizeAt(raw []byte, now time.Time) DisplayPlan {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Unrecognized{Raw: ""}
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return PlainText{Body: string(raw)}
	}
	return fromValue(v, now, true)
}

func fromValue(v any, now time.Time, unwrap bool) DisplayPlan {
	switch t := v.(type) {
	case string:
		return PlainText{Body: t}
	case map[string]any:
		if unwrap {
			if inner, ok := t["plan"]; ok && inner != nil {
				return fromValue(inner, now, false)
			}
			if s, ok := t["text"].(string); ok {
				return PlainText{Body: s}
			}
		}
		if st, ok := structured(t, now); ok {
			return st
		}
	}
	return unrecognized(v)
}

func structured(obj map[string]any, now time.Time) (Structured, bool) {
	list, ok := obj["dayPlans"].([]any)
	if !ok {
		return Structured{}, false
	}
	days := make([]DaySection, 0, len(list))
	for _, item := range list {
		d, ok := item.(map[string]any)
		if !ok {
			return Structured{}, false
		}
		sec := DaySection{Title: stringField(d, "day")}
		if sec.Diet, ok = stringList(d["diet"]); !ok {
			return Structured{}, false
		}
		if sec.Exercise, ok = stringList(d["exercise"]); !ok {
			return Structured{}, false
		}
		if sec.Wellness, ok = stringList(d["wellness"]); !ok {
			return Structured{}, false
		}
		days = append(days, sec)
	}

	weekStart := stringField(obj, "weekStart")
	start, err := time.Parse(internal.DateLayout, weekStart)
	if err != nil {
		start = now
		weekStart = now.Format(internal.DateLayout)
	}
	return Structured{
		Source:    stringField(obj, "source"),
		Message:   stringField(obj, "message"),
		Summary:   stringField(obj, "summary"),
		WeekStart: weekStart,
		WeekLabel: start.Format("Jan 2") + " - " + start.AddDate(0, 0, 6).Format("Jan 2"),
		Days:      days,
	}, true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// stringList accepts a missing list as empty and rejects non-string items.
func stringList(v any) ([]string, bool) {
	if v == nil {
		return []string{}, true
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func unrecognized(v any) Unrecognized {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Unrecognized{}
	}
	return Unrecognized{Raw: string(b)}
}

var newlines = regexp.MustCompile(`\n+`)

// Snippet is the short dashboard preview of a plan.
func Snippet(p DisplayPlan, limit int) string {
	if p == nil {
		return "No plan yet. Generate one from Vitals."
	}
	text := strings.TrimSpace(newlines.ReplaceAllString(p.Text(), " "))
	if text == "" {
		return "No plan yet. Generate one from Vitals."
	}
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return strings.TrimSpace(string(r[:limit])) + "…"
}
