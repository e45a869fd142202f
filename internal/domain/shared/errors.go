package shared

import "errors"

// DomainError represents a domain-level error with a machine-readable code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so wrapped copies of the
// sentinel errors below still match with errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "resource was modified by another request")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "insufficient stock available")
	ErrDuplicateRequest    = NewDomainError("DUPLICATE_REQUEST", "duplicate request")
)
