package apierror

import (
	"fmt"
	"net/http"
)

const (
	CategoryAuthentication = "Authentication Failed"
	CategoryAccess         = "Access Denied"
	CategoryValidation     = "Validation Failed"
	CategoryNotFound       = "Not Found"
	CategoryConflict       = "Conflict"
	CategoryInternal       = "Internal Error"
)

type APIError struct {
	Code       string            `json:"code"`
	Category   string            `json:"category"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the internal cause, which is logged but never rendered.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithCause attaches an internal cause for logging and errors.Is checks.
func (e *APIError) WithCause(err error) *APIError {
	e.Err = err
	return e
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Category: categoryFor(status), Message: message, Details: details, HTTPStatus: status}
}

// Unauthenticated is shared by every authentication failure so callers cannot
// tell a missing token from an unknown subject.
func Unauthenticated(cause error) *APIError {
	return &APIError{
		Code:       "UNAUTHENTICATED",
		Category:   CategoryAuthentication,
		Message:    "authentication required",
		HTTPStatus: http.StatusUnauthorized,
		Err:        cause,
	}
}

func Forbidden(message string) *APIError {
	return &APIError{
		Code:       "FORBIDDEN",
		Category:   CategoryAccess,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func InvalidInput(message string, fields map[string]string) *APIError {
	return &APIError{
		Code:       "INVALID_INPUT",
		Category:   CategoryValidation,
		Message:    message,
		Fields:     fields,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func BadRequest(code string, message string, details string) *APIError {
	return New(code, message, details, http.StatusBadRequest)
}

func NotFound(message string, details string) *APIError {
	return New("NOT_FOUND", message, details, http.StatusNotFound)
}

func Conflict(code string, message string, details string) *APIError {
	return New(code, message, details, http.StatusConflict)
}

func categoryFor(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return CategoryAuthentication
	case http.StatusForbidden:
		return CategoryAccess
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CategoryValidation
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusConflict:
		return CategoryConflict
	case http.StatusTooManyRequests:
		return "Rate Limited"
	case http.StatusServiceUnavailable:
		return "Unavailable"
	default:
		return CategoryInternal
	}
}
