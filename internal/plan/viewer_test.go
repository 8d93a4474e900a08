package plan

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var viewNow = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func TestNormalizePlainString(t *testing.T) {
	p := NormalizeAt([]byte(`"plain text"`), viewNow)
	require.IsType(t, PlainText{}, p)
	assert.Equal(t, "plain text", p.Text())
}

func TestNormalizeNonJSONIsVerbatim(t *testing.T) {
	p := NormalizeAt([]byte("plain text\nline two"), viewNow)
	require.IsType(t, PlainText{}, p)
	assert.Equal(t, "plain text\nline two", p.Text())
}

func TestNormalizeWrappedString(t *testing.T) {
	p := NormalizeAt([]byte(`{"plan":"text","generatedAt":"2024-01-01T00:00:00Z"}`), viewNow)
	require.IsType(t, PlainText{}, p)
	assert.Equal(t, "text", p.Text())
}

func TestNormalizeLegacyTextField(t *testing.T) {
	p := NormalizeAt([]byte(`{"text":"old plan"}`), viewNow)
	require.IsType(t, PlainText{}, p)
	assert.Equal(t, "old plan", p.Text())
}

func TestNormalizeStructured(t *testing.T) {
	raw := `{"plan":{"summary":"S","dayPlans":[{"day":"Mon","diet":["x"],"exercise":[],"wellness":[]}]}}`
	p := NormalizeAt([]byte(raw), viewNow)
	s, ok := p.(Structured)
	require.True(t, ok)
	assert.Equal(t, "S", s.Summary)
	require.Len(t, s.Days, 1)
	assert.Equal(t, "Mon", s.Days[0].Title)
	assert.Equal(t, []string{"x"}, s.Days[0].Diet)
	assert.Empty(t, s.Days[0].Exercise)
	assert.Equal(t, "2024-01-02", s.WeekStart)
	assert.Equal(t, "Jan 2 - Jan 8", s.WeekLabel)
}

func TestNormalizeBareFallbackShape(t *testing.T) {
	raw, err := json.Marshal(FallbackPlan(nil, "2024-02-26"))
	require.NoError(t, err)
	p := NormalizeAt(raw, viewNow)
	s, ok := p.(Structured)
	require.True(t, ok)
	assert.Equal(t, internal.PlanSourceFallback, s.Source)
	assert.Len(t, s.Days, 7)
	assert.Equal(t, "Feb 26 - Mar 3", s.WeekLabel)
}

func TestNormalizeGarbage(t *testing.T) {
	p := NormalizeAt([]byte(`{"plan":{"garbage":true}}`), viewNow)
	u, ok := p.(Unrecognized)
	require.True(t, ok)
	assert.JSONEq(t, `{"garbage":true}`, u.Raw)
}

func TestNormalizeMalformedDayPlans(t *testing.T) {
	for _, raw := range []string{
		`{"plan":{"dayPlans":"soon"}}`,
		`{"plan":{"dayPlans":[1,2]}}`,
		`{"plan":{"dayPlans":[{"day":"Mon","diet":"x"}]}}`,
		`{"plan":{"dayPlans":[{"day":"Mon","diet":[3]}]}}`,
		`[1,2,3]`,
		`42`,
		`{"plan":null}`,
	} {
		assert.Equal(t, KindUnrecognized, NormalizeAt([]byte(raw), viewNow).Kind(), raw)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Equal(t, KindUnrecognized, NormalizeAt(nil, viewNow).Kind())
}

func TestDisplayJSONKinds(t *testing.T) {
	b, err := json.Marshal(NormalizeAt([]byte(`"hi"`), viewNow))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"text","text":"hi"}`, string(b))

	b, err = json.Marshal(NormalizeAt([]byte(`{"plan":{"dayPlans":[]}}`), viewNow))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"structured","weekStart":"2024-01-02","weekLabel":"Jan 2 - Jan 8","days":[]}`, string(b))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "No plan yet. Generate one from Vitals.", Snippet(nil, 140))
	assert.Equal(t, "a b", Snippet(PlainText{Body: "a\n\nb"}, 140))

	long := strings.Repeat("word ", 50)
	s := Snippet(PlainText{Body: long}, 20)
	assert.True(t, strings.HasSuffix(s, "…"))
	assert.LessOrEqual(t, len([]rune(s)), 21)

	st := NormalizeAt([]byte(`{"plan":{"summary":"Weekly focus","dayPlans":[{"day":"Mon","diet":["oats"]}]}}`), viewNow)
	assert.True(t, strings.HasPrefix(Snippet(st, 140), "Weekly focus Mon"))
}
