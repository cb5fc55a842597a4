// Package errors defines the structured error taxonomy shared by all services.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypePayment    ErrorType = "payment"
	ErrorTypeInternal   ErrorType = "internal"
)

// APIError represents a structured API error
type APIError struct {
	Type        ErrorType `json:"type"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
	HTTPStatus  int       `json:"-"`
	InternalErr error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Message, e.Details, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.InternalErr
}

// WithDetails returns a copy of the error carrying an additional detail message
func (e *APIError) WithDetails(details string) *APIError {
	clone := *e
	clone.Details = details
	return &clone
}

func newAPIError(errorType ErrorType, code, message string, httpStatus int) *APIError {
	return &APIError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// InvalidInput reports missing or malformed request fields
func InvalidInput(message string) *APIError {
	return newAPIError(ErrorTypeValidation, "INVALID_INPUT", message, http.StatusBadRequest)
}

// NotFound reports an unknown email, session, or other resource
func NotFound(resource string) *APIError {
	return newAPIError(ErrorTypeNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// CapacityExceeded reports that the per-organization registration cap was hit
func CapacityExceeded(organizationID string) *APIError {
	e := newAPIError(ErrorTypeValidation, "CAPACITY_EXCEEDED", "organization registration capacity exceeded", http.StatusBadRequest)
	e.Details = fmt.Sprintf("organization %s already has the maximum number of registered members", organizationID)
	return e
}

// DuplicateEmail reports a registration attempt for an already registered email
func DuplicateEmail(email string) *APIError {
	e := newAPIError(ErrorTypeConflict, "DUPLICATE_EMAIL", "email is already registered", http.StatusBadRequest)
	e.Details = fmt.Sprintf("a member with email %s already exists", email)
	return e
}

// NameNotResolved reports a member whose stored pair has no combined roster row.
// Distinct from the member itself not existing.
func NameNotResolved(organizationID, sponsorID string) *APIError {
	e := newAPIError(ErrorTypeNotFound, "NAME_NOT_RESOLVED", "display name could not be resolved from the roster", http.StatusNotFound)
	e.Details = fmt.Sprintf("no roster row matches organization %s with sponsor %s", organizationID, sponsorID)
	return e
}

// SourceUnavailable reports a failure reading the roster dataset
func SourceUnavailable(cause error) *APIError {
	return &APIError{
		Type:        ErrorTypeUpstream,
		Code:        "SOURCE_UNAVAILABLE",
		Message:     "roster source unavailable",
		HTTPStatus:  http.StatusInternalServerError,
		InternalErr: cause,
	}
}

// ProviderUnavailable reports a failure reaching the payment provider
func ProviderUnavailable(cause error) *APIError {
	return &APIError{
		Type:        ErrorTypeUpstream,
		Code:        "PROVIDER_UNAVAILABLE",
		Message:     "payment provider unavailable",
		HTTPStatus:  http.StatusInternalServerError,
		InternalErr: cause,
	}
}

// PaymentNotConfirmed reports a callback whose session the provider does not report as paid
func PaymentNotConfirmed(sessionID string) *APIError {
	e := newAPIError(ErrorTypePayment, "PAYMENT_NOT_CONFIRMED", "payment has not been confirmed", http.StatusBadRequest)
	e.Details = fmt.Sprintf("session %s is not in paid status", sessionID)
	return e
}

// PricingNotConfigured reports a missing price for the requested plan
func PricingNotConfigured(plan string) *APIError {
	return newAPIError(ErrorTypeNotFound, "PRICING_NOT_CONFIGURED", fmt.Sprintf("no price configured for plan %s", plan), http.StatusNotFound)
}

// Internal reports an unexpected internal failure
func Internal(message string, cause error) *APIError {
	return &APIError{
		Type:        ErrorTypeInternal,
		Code:        "INTERNAL_ERROR",
		Message:     message,
		HTTPStatus:  http.StatusInternalServerError,
		InternalErr: cause,
	}
}

// AsAPIError extracts an APIError from an error chain, or nil
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// HTTPStatus returns the HTTP status for an error, defaulting to 500
func HTTPStatus(err error) int {
	if apiErr := AsAPIError(err); apiErr != nil {
		return apiErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
