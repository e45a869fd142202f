package dto

import (
	"net/http"
	"strings"
)

// Error codes produced by the HTTP layer itself. Domain errors keep the code
// they were created with.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeGateway         = "PAYMENT_GATEWAY_ERROR"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// Payment error codes; the payment domain reports plain sentinel errors that
// the handlers translate to these.
const (
	ErrCodeSignatureMismatch = "SIGNATURE_MISMATCH"
	ErrCodeIntentMismatch    = "INTENT_MISMATCH"
	ErrCodeInvalidAmount     = "INVALID_AMOUNT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeGateway:  http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,
	ErrCodeSignatureMismatch:  http.StatusBadRequest,
	ErrCodeIntentMismatch:     http.StatusBadRequest,
	"CART_EMPTY":              http.StatusBadRequest,
	"CANNOT_CANCEL":           http.StatusBadRequest,
	"ALREADY_PAID":            http.StatusBadRequest,
	"INSUFFICIENT_STOCK":      http.StatusBadRequest,
	"TOO_MANY_IMAGES":         http.StatusBadRequest,
	"DISALLOWED_CONTENT_TYPE": http.StatusBadRequest,
	"UPLOAD_NOT_FOUND":        http.StatusBadRequest,

	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,

	ErrCodeForbidden: http.StatusForbidden,
	"USER_BLOCKED":   http.StatusForbidden,

	ErrCodeNotFound: http.StatusNotFound,

	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"DUPLICATE_REQUEST":    http.StatusConflict,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	ErrCodeUnavailable:    http.StatusServiceUnavailable,
	"STORAGE_DISABLED":    http.StatusServiceUnavailable,
	"INVOICE_UNAVAILABLE": http.StatusServiceUnavailable,
	"UPLOAD_URL_FAILED":   http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code. Codes without an
// explicit entry are classified by their prefix or suffix; anything else is 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "TOKEN_"):
		return http.StatusUnauthorized
	case strings.HasPrefix(code, "ALREADY_"):
		return http.StatusConflict
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
