package response

import "github.com/5-07/sweeten/internal"

type APIResponse struct {
	Data  interface{}        `json:"data,omitempty"`
	Meta  map[string]any     `json:"meta,omitempty"`
	Error *internal.AppError `json:"error,omitempty"`
}

func Success(data interface{}, meta map[string]any) APIResponse {
	return APIResponse{Data: data, Meta: meta}
}

func BadRequest(msg string) APIResponse {
	return NewAppError(400, msg)
}

func Forbidden(msg string) APIResponse {
	return NewAppError(403, msg)
}

func NotFound(msg string) APIResponse {
	return NewAppError(404, msg)
}

func Conflict(msg string) APIResponse {
	return NewAppError(409, msg)
}

// InternalError never carries the cause; it is logged instead.
func InternalError() APIResponse {
	return NewAppError(500, "Internal server error")
}

func NewAppError(status int, msg string) APIResponse {
	return APIResponse{Error: internal.NewAppError(status, msg)}
}
