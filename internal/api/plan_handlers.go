package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/auth"
	"github.com/5-07/sweeten/internal/plan"
	"github.com/gin-gonic/gin"
)

const snippetLength = 160

type planResponse struct {
	Plan        json.RawMessage  `json:"plan"`
	Source      string           `json:"source,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Display     plan.DisplayPlan `json:"display"`
	Snippet     string           `json:"snippet"`
}

func newPlanResponse(doc internal.PlanDocument, display plan.DisplayPlan) planResponse {
	return planResponse{
		Plan:        doc.Plan,
		Source:      doc.Source,
		GeneratedAt: doc.GeneratedAt,
		Display:     display,
		Snippet:     plan.Snippet(display, snippetLength),
	}
}

func PostPlan(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		// The plan is stored even if the client goes away mid-generation.
		ctx := context.WithoutCancel(c.Request.Context())
		doc, err := app.Plans().Generate(ctx, user)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to generate plan")
			return
		}

		resp := newPlanResponse(*doc, plan.NormalizeAt(doc.Plan, app.Now()))
		HandleSuccess(c, app.Logger(), http.StatusCreated, resp, nil)
	}
}

func GetPlan(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		view, err := app.Plans().Current(c.Request.Context(), user)
		if err != nil {
			HandleError(c, app.Logger(), err, "No plan yet")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, newPlanResponse(view.Document, view.Display), nil)
	}
}
