package dto

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string             `json:"error" example:"cart is empty"`
	Code      string             `json:"code" example:"CART_EMPTY"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one field that failed request validation
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MessageResponse is returned by operations with nothing else to report
type MessageResponse struct {
	Message string `json:"message" example:"Item removed"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
	Uptime  string            `json:"uptime,omitempty"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID,
	}
}

// NewValidationErrorResponse creates a 400 body listing the failing fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) ErrorResponse {
	return ErrorResponse{
		Error:     message,
		Code:      ErrCodeValidation,
		RequestID: requestID,
		Details:   details,
	}
}
