package models

// ResponseStatus distinguishes success, error and warning responses.
// "warning" means the request succeeded but matched nothing, so callers can
// tell "nothing to show" from "something went wrong".
type ResponseStatus string

const (
	ResponseSuccess ResponseStatus = "success"
	ResponseError   ResponseStatus = "error"
	ResponseWarning ResponseStatus = "warning"
)

// APIResponse is the envelope every endpoint renders
type APIResponse struct {
	Status  ResponseStatus `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    interface{}    `json:"data,omitempty"`
	Error   *AppError      `json:"error,omitempty"`
}

// SuccessResponse builds a success envelope
func SuccessResponse(data interface{}) APIResponse {
	return APIResponse{Status: ResponseSuccess, Data: data}
}

// WarningResponse builds a successful-but-empty envelope
func WarningResponse(message string) APIResponse {
	return APIResponse{Status: ResponseWarning, Message: message}
}

// ErrorResponse builds an error envelope from an AppError
func ErrorResponse(err *AppError) APIResponse {
	return APIResponse{Status: ResponseError, Message: err.Message, Error: err}
}
