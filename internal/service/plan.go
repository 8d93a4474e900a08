package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/gating"
	"github.com/5-07/sweeten/internal/plan"
	"github.com/5-07/sweeten/internal/storage"
	"github.com/google/uuid"
)

type PlanService struct {
	vitals    storage.VitalsRepository
	plans     storage.PlanRepository
	usage     storage.UsageRepository
	generator *plan.Generator
	logger    internal.Logger

	Window      int
	EnforceGate bool
	Now         func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

type PlanView struct {
	Document internal.PlanDocument
	Display  plan.DisplayPlan
}

func NewPlanService(vitals storage.VitalsRepository, plans storage.PlanRepository, usage storage.UsageRepository, gen *plan.Generator, logger internal.Logger) *PlanService {
	return &PlanService{
		vitals:      vitals,
		plans:       plans,
		usage:       usage,
		generator:   gen,
		logger:      logger,
		Window:      plan.MaxWindow,
		EnforceGate: true,
		Now:         time.Now,
		inFlight:    make(map[string]struct{}),
	}
}

func (s *PlanService) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[userID]; busy {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *PlanService) release(userID string) {
	s.mu.Lock()
	delete(s.inFlight, userID)
	s.mu.Unlock()
}

// Generate builds and stores a new plan for user, replacing the old one.
// Only one generation per user runs at a time.
func (s *PlanService) Generate(ctx context.Context, user *internal.User) (*internal.PlanDocument, error) {
	if !s.acquire(user.ID) {
		return nil, internal.ErrGenerationInProgress
	}
	defer s.release(user.ID)

	entries, err := s.vitals.ListRecentVitals(ctx, user.ID, s.Window)
	if err != nil {
		return nil, fmt.Errorf("load vitals: %w", err)
	}
	if len(entries) == 0 {
		return nil, internal.ErrNoVitals
	}
	if s.EnforceGate && !gating.PlanUnlocked(gating.ComputeFilledDays(entries)) {
		return nil, internal.ErrPlanLocked
	}

	res, err := s.generator.Generate(ctx, entries)
	if err != nil {
		return nil, err
	}
	log := s.logger.With("user_id", user.ID)
	if res.Fallback() {
		log.Warnf("plan generation fell back to template: %v", res.Cause)
	}

	if err := s.plans.SavePlan(ctx, user.ID, res.Document); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	if res.TokensUsed > 0 {
		rec := internal.UsageRecord{ID: uuid.NewString(), TokensUsed: res.TokensUsed, CreatedAt: s.Now().UTC()}
		if err := s.usage.AddUsage(ctx, user.ID, rec); err != nil {
			log.Errorf("failed to record token usage: %v", err)
		}
	}
	log.Infof("plan stored (source=%s, tokens=%d)", res.Document.Source, res.TokensUsed)
	return &res.Document, nil
}

// Current returns the stored plan with its display form.
func (s *PlanService) Current(ctx context.Context, user *internal.User) (*PlanView, error) {
	doc, err := s.plans.GetPlan(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &PlanView{Document: *doc, Display: plan.NormalizeAt(doc.Plan, s.Now())}, nil
}
