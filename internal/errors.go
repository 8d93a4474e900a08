package internal

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNoVitals             = errors.New("no vitals found")
	ErrPlanLocked           = errors.New("plan locked until 7 days are logged")
	ErrGenerationInProgress = errors.New("plan generation already in progress")
	ErrUnauthorized         = errors.New("unauthorized")
)

// AppError is the error body of an API response.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}
