package api

import (
	"fmt"
	"net/http"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/auth"
	"github.com/5-07/sweeten/internal/service"
	"github.com/gin-gonic/gin"
)

func ListReminders(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		reminders, err := service.ListReminders(c.Request.Context(), app.Store(), user)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch reminders")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, reminders, nil)
	}
}

func PostReminder(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var body reminderRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), fmt.Errorf("%w: %v", internal.ErrInvalidInput, err), "Invalid JSON")
			return
		}

		r, err := service.AddReminder(c.Request.Context(), app.Store(), user, &service.ReminderRequest{Text: body.Text})
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to add reminder")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusCreated, r, nil)
	}
}

func DeleteReminder(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		if err := service.RemoveReminder(c.Request.Context(), app.Store(), user, c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err, "Failed to delete reminder")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
