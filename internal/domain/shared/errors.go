package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// NewValidationError creates a validation error with the given message
func NewValidationError(message string) *DomainError {
	return NewDomainError("VALIDATION_ERROR", message)
}

// NewConflictError creates a conflict error with the given message
func NewConflictError(message string) *DomainError {
	return NewDomainError("CONFLICT", message)
}

// NewOverpaymentError creates the business-rule error returned when a payment
// would push cumulative payments past the charge total. The message always
// reports the maximum amount still payable, rounded to 2 decimals.
func NewOverpaymentError(code string, amount, remaining decimal.Decimal) *DomainError {
	return NewDomainError(code, fmt.Sprintf(
		"Payment of %s exceeds the outstanding balance; maximum allowed is %s",
		amount.Round(2).StringFixed(2), remaining.Round(2).StringFixed(2)))
}

// NewTransientError wraps an infrastructure failure that is safe to retry
func NewTransientError(message string) *DomainError {
	return NewDomainError("TRANSIENT", message)
}
