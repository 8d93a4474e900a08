package api

import (
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/service"
	"github.com/5-07/sweeten/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Store() storage.Store
	Plans() *service.PlanService
	TokenCeiling() int
	Now() time.Time
}

// Application is the App the server runs with.
type Application struct {
	logger  internal.Logger
	store   storage.Store
	plans   *service.PlanService
	ceiling int
	clock   func() time.Time
}

func NewApplication(logger internal.Logger, store storage.Store, plans *service.PlanService, ceiling int) *Application {
	return &Application{logger: logger, store: store, plans: plans, ceiling: ceiling, clock: time.Now}
}

func (a *Application) Logger() internal.Logger     { return a.logger }
func (a *Application) Store() storage.Store        { return a.store }
func (a *Application) Plans() *service.PlanService { return a.plans }
func (a *Application) TokenCeiling() int           { return a.ceiling }
func (a *Application) Now() time.Time              { return a.clock() }

// WithClock replaces the clock used for "today" and the usage month.
func (a *Application) WithClock(now func() time.Time) *Application {
	a.clock = now
	return a
}
