package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/auth"
	"github.com/5-07/sweeten/internal/service"
	"github.com/gin-gonic/gin"
)

func PostVitals(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var body vitalsRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), fmt.Errorf("%w: %v", internal.ErrInvalidInput, err), "Invalid JSON")
			return
		}

		entry, err := service.SaveVitals(c.Request.Context(), app.Store(), user, body.input())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to save vitals")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, entry, nil)
	}
}

func ListVitals(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				HandleError(c, app.Logger(), fmt.Errorf("%w: limit must be an integer", internal.ErrInvalidInput), "Invalid limit")
				return
			}
			limit = n
		}

		entries, err := service.ListVitals(c.Request.Context(), app.Store(), user, limit)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch vitals")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, entries, map[string]any{"count": len(entries)})
	}
}

func GetVitalsProgress(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		progress, err := service.Progress(c.Request.Context(), app.Store(), user, app.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to compute progress")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, progress, nil)
	}
}

func GetVitalsByDate(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		entry, err := service.GetVitals(c.Request.Context(), app.Store(), user, c.Param("date"))
		if err != nil {
			HandleError(c, app.Logger(), err, "No vitals for date")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, entry, nil)
	}
}
