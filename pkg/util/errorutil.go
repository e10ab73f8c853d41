package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// ErrorKind is the closed set of error codes exposed by the API. Clients
// dispatch on the code alone; the HTTP status is derived from it and is
// never overridden by call sites.
type ErrorKind string

const (
	KindAuthenticationRequired ErrorKind = "authentication_required"
	KindInvalidCredentials     ErrorKind = "invalid_credentials"
	KindTokenExpired           ErrorKind = "token_expired"
	KindTokenInvalid           ErrorKind = "token_invalid"
	KindPermissionDenied       ErrorKind = "permission_denied"
	KindNotFound               ErrorKind = "not_found"
	KindRateLimitExceeded      ErrorKind = "rate_limit_exceeded"
	KindValidationError        ErrorKind = "validation_error"
	KindInternalError          ErrorKind = "internal_error"
	KindServiceUnavailable     ErrorKind = "service_unavailable"
	KindExternalServiceError   ErrorKind = "external_service_error"
)

var statusByKind = map[ErrorKind]int{
	KindAuthenticationRequired: http.StatusUnauthorized,
	KindInvalidCredentials:     http.StatusUnauthorized,
	KindTokenExpired:           http.StatusUnauthorized,
	KindTokenInvalid:           http.StatusUnauthorized,
	KindPermissionDenied:       http.StatusForbidden,
	KindNotFound:               http.StatusNotFound,
	KindRateLimitExceeded:      http.StatusTooManyRequests,
	KindValidationError:        http.StatusUnprocessableEntity,
	KindInternalError:          http.StatusInternalServerError,
	KindServiceUnavailable:     http.StatusServiceUnavailable,
	KindExternalServiceError:   http.StatusBadGateway,
}

// APIError standardizes application errors for the HTTP boundary.
type APIError struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status bound to the error kind. Unknown kinds map
// to 500 so a missing table entry can never surface as a 200.
func (e *APIError) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NewAPIError constructs an APIError of the given kind.
func NewAPIError(kind ErrorKind, message string, details map[string]any) *APIError {
	return &APIError{Kind: kind, Message: message, Details: details}
}

func NewAuthenticationRequired(message string) error {
	return NewAPIError(KindAuthenticationRequired, message, nil)
}

func NewInvalidCredentials(message string) error {
	return NewAPIError(KindInvalidCredentials, message, nil)
}

func NewTokenExpired(message string, details map[string]any) error {
	return NewAPIError(KindTokenExpired, message, details)
}

func NewTokenInvalid(message string, details map[string]any) error {
	return NewAPIError(KindTokenInvalid, message, details)
}

func NewPermissionDenied(message string) error {
	return NewAPIError(KindPermissionDenied, message, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewAPIError(KindNotFound, fmt.Sprintf("%s not found", resource), details)
}

func NewRateLimitExceeded(resetIn int) error {
	return NewAPIError(KindRateLimitExceeded, "too many requests", map[string]any{"reset_in": resetIn})
}

func NewValidationError(message string, details map[string]any) error {
	return NewAPIError(KindValidationError, message, details)
}

func NewInternalError(err error) error {
	return &APIError{Kind: KindInternalError, Message: "internal server error", Err: err}
}

func NewServiceUnavailable(message string, details map[string]any) error {
	return NewAPIError(KindServiceUnavailable, message, details)
}

func NewExternalServiceError(service string, err error) error {
	return &APIError{
		Kind:    KindExternalServiceError,
		Message: fmt.Sprintf("error communicating with %s", service),
		Details: map[string]any{"service": service},
		Err:     err,
	}
}

// ToAPIError coerces any error into an APIError. Everything unrecognized
// collapses into internal_error so internal detail never reaches a client.
func ToAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &APIError{Kind: KindNotFound, Message: "resource not found"}
	}
	return &APIError{Kind: KindInternalError, Message: "internal server error", Err: err}
}
