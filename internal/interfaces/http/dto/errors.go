package dto

import (
	"errors"
	"net/http"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// Domain error codes recognized by the HTTP layer. Domain and application
// services attach these to shared.DomainError; the handler translates them
// to HTTP statuses here so no service ever imports net/http.
const (
	// ErrCodeValidation is used for missing or malformed input
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeNotFound is used when a referenced entity is absent
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyExists is used when creating a duplicate resource
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	// ErrCodeConflict is used when a state invariant would be violated
	ErrCodeConflict = "CONFLICT"
	// ErrCodeOverpayment is used when a payment exceeds the fee total
	ErrCodeOverpayment = "OVERPAYMENT"
	// ErrCodeExceedsBalance is used when an invoice payment exceeds the balance
	ErrCodeExceedsBalance = "EXCEEDS_BALANCE"
	// ErrCodeInvalidState is used when an operation is invalid for the current state
	ErrCodeInvalidState = "INVALID_STATE"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	// ErrCodeUnauthorized is used when authentication is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeTransient is used for retryable infrastructure failures
	ErrCodeTransient = "TRANSIENT"
	// ErrCodeBadRequest is used for malformed request payloads
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInternal is used for unexpected internal failures
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Business-rule violations deliberately map to 400, not 422: clients treat
// them the same as input validation failures.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeAlreadyExists:  http.StatusBadRequest,
	ErrCodeConflict:       http.StatusBadRequest,
	ErrCodeOverpayment:    http.StatusBadRequest,
	ErrCodeExceedsBalance: http.StatusBadRequest,
	ErrCodeInvalidState:   http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeTransient: http.StatusInternalServerError,
	ErrCodeInternal:  http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError translates any error into an error code and HTTP status.
// Unknown errors never leak their message to clients.
func FromError(err error) (code string, status int, message string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code, GetHTTPStatus(domainErr.Code), domainErr.Message
	}
	return ErrCodeInternal, http.StatusInternalServerError, "An internal error occurred"
}
