package api

import (
	"errors"
	"net/http"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/response"
	"github.com/gin-gonic/gin"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, internal.ErrInvalidInput), errors.Is(err, internal.ErrNoVitals):
		return http.StatusBadRequest
	case errors.Is(err, internal.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, internal.ErrPlanLocked):
		return http.StatusForbidden
	case errors.Is(err, internal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, internal.ErrGenerationInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func HandleError(c *gin.Context, logger internal.Logger, err error, msg string) {
	requestID := c.GetString("request_id")
	status := StatusFor(err)
	var resp response.APIResponse
	switch status {
	case http.StatusBadRequest:
		resp = response.BadRequest(msg + ": " + err.Error())
	case http.StatusForbidden:
		resp = response.Forbidden(msg + ": " + err.Error())
	case http.StatusNotFound:
		resp = response.NotFound(msg)
	case http.StatusConflict:
		resp = response.Conflict(msg + ": " + err.Error())
	case http.StatusInternalServerError:
		logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
		resp = response.InternalError()
	default:
		resp = response.NewAppError(status, msg)
	}
	if status < http.StatusInternalServerError {
		logger.Infof("[request_id=%s] %s: %v", requestID, msg, err)
	}
	c.JSON(status, resp)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, status int, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Debugf("[request_id=%s] Success", requestID)
	c.JSON(status, response.Success(data, meta))
}
