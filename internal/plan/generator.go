package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/5-07/sweeten/internal"
)

// Completion is the text returned by a generation service.
type Completion struct {
	Text       string
	TokensUsed int
}

// TextGenerator turns a prompt into plan text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (Completion, error)
}

// Result is the outcome of one generation. Cause is set when the fallback
// replaced the generated text.
type Result struct {
	Document   internal.PlanDocument
	TokensUsed int
	Cause      error
}

func (r Result) Fallback() bool { return r.Document.Source == internal.PlanSourceFallback }

type Generator struct {
	client  TextGenerator
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Generator)

func WithTimeout(d time.Duration) Option { return func(g *Generator) { g.timeout = d } }

func WithClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

func NewGenerator(client TextGenerator, opts ...Option) *Generator {
	g := &Generator{client: client, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate produces a plan document from entries, newest first. It fails
// only when entries is empty; every other problem yields the fallback plan.
func (g *Generator) Generate(ctx context.Context, entries []internal.VitalEntry) (Result, error) {
	if len(entries) == 0 {
		return Result{}, internal.ErrNoVitals
	}
	now := g.now()

	text, tokens, err := g.complete(ctx, entries)
	if err != nil {
		return Result{Document: g.fallback(entries, now), TokensUsed: tokens, Cause: err}, nil
	}
	raw, err := json.Marshal(text)
	if err != nil {
		return Result{Document: g.fallback(entries, now), Cause: err}, nil
	}
	return Result{
		Document: internal.PlanDocument{
			Plan:        raw,
			Source:      internal.PlanSourceGenerated,
			GeneratedAt: now,
		},
		TokensUsed: tokens,
	}, nil
}

func (g *Generator) complete(ctx context.Context, entries []internal.VitalEntry) (string, int, error) {
	if g.client == nil {
		return "", 0, errors.New("plan: no generation client configured")
	}
	prompt, err := BuildPrompt(entries)
	if err != nil {
		return "", 0, err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	c, err := g.client.Generate(ctx, prompt)
	if err != nil {
		return "", 0, fmt.Errorf("plan: generate: %w", err)
	}
	if strings.TrimSpace(c.Text) == "" {
		return "", c.TokensUsed, errors.New("plan: empty completion")
	}
	return c.Text, c.TokensUsed, nil
}

func (g *Generator) fallback(entries []internal.VitalEntry, now time.Time) internal.PlanDocument {
	sp := FallbackPlan(entries, now.Format(internal.DateLayout))
	// StructuredPlan holds only strings and slices, so this cannot fail.
	raw, _ := json.Marshal(sp)
	return internal.PlanDocument{
		Plan:        raw,
		Source:      internal.PlanSourceFallback,
		GeneratedAt: now,
	}
}
