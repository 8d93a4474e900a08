package api

import (
	"net/http"

	"github.com/5-07/sweeten/internal/auth"
	"github.com/5-07/sweeten/internal/service"
	"github.com/gin-gonic/gin"
)

func GetUsage(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		usage, err := service.MonthUsage(c.Request.Context(), app.Store(), user, app.Now(), app.TokenCeiling())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch usage")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, usage, nil)
	}
}

func NewRouter(app App, provider auth.Provider) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware(app.Logger()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Protected routes
	authed := r.Group("/api", auth.AuthMiddleware(provider))
	authed.POST("/vitals", PostVitals(app))
	authed.GET("/vitals", ListVitals(app))
	authed.GET("/vitals/progress", GetVitalsProgress(app))
	authed.GET("/vitals/:date", GetVitalsByDate(app))
	authed.POST("/plan", PostPlan(app))
	authed.GET("/plan", GetPlan(app))
	authed.GET("/reminders", ListReminders(app))
	authed.POST("/reminders", PostReminder(app))
	authed.DELETE("/reminders/:id", DeleteReminder(app))
	authed.GET("/usage", GetUsage(app))

	return r
}
