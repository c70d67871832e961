package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors. Every AppError wraps exactly one of them so that
// callers can branch with errors.Is without inspecting codes.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrRateLimited    = errors.New("rate limited")
	ErrFormat         = errors.New("malformed input")
	ErrProvider       = errors.New("verification provider error")
	ErrNetwork        = errors.New("backend unreachable")
	ErrValidation     = errors.New("validation failed")
	ErrAuthExpired    = errors.New("session expired")
)

// Error codes rendered to clients.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidInput = "INVALID_INPUT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeFormat       = "FORMAT_ERROR"
	CodeProvider     = "PROVIDER_ERROR"
	CodeNetwork      = "NETWORK_ERROR"
	CodeValidation   = "VALIDATION_ERROR"
	CodeAuthExpired  = "AUTH_EXPIRED"
)

// AppError represents a structured application error with HTTP status mapping.
// Message is always safe to show to the end user.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error. The wrapped error is never shown to clients.
func Internal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Format creates a 400 error for input rejected before any network call.
func Format(message string) *AppError {
	return &AppError{
		Code:    CodeFormat,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrFormat,
	}
}

// Provider creates an error for a verification provider failure. The cause
// is kept so callers can still match the provider-specific sentinel.
func Provider(status int, message string, cause error) *AppError {
	return &AppError{
		Code:    CodeProvider,
		Message: message,
		Status:  status,
		Err:     errors.Join(ErrProvider, cause),
	}
}

// Network creates a 503 error for an unreachable or failing backend.
func Network(cause error) *AppError {
	return &AppError{
		Code:    CodeNetwork,
		Message: "we could not reach the server, please try again",
		Status:  http.StatusServiceUnavailable,
		Err:     errors.Join(ErrNetwork, cause),
	}
}

// Validation creates an error for a request the backend rejected. The
// server-supplied detail is used verbatim when present.
func Validation(status int, detail string) *AppError {
	if detail == "" {
		detail = "the request could not be processed"
	}
	if status < 400 || status > 499 {
		status = http.StatusBadRequest
	}
	return &AppError{
		Code:    CodeValidation,
		Message: detail,
		Status:  status,
		Err:     ErrValidation,
	}
}

// AuthExpired creates a 401 error for a session the backend no longer accepts.
func AuthExpired() *AppError {
	return &AppError{
		Code:    CodeAuthExpired,
		Message: "your session has expired, please sign in again",
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthExpired,
	}
}

// RateLimited creates a 429 error.
func RateLimited(message string) *AppError {
	return &AppError{
		Code:    CodeProvider,
		Message: message,
		Status:  http.StatusTooManyRequests,
		Err:     ErrRateLimited,
	}
}

// ServiceUnavailable creates a 503 error for a dependency that is switched off or down.
func ServiceUnavailable(message string) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrFormat), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrAuthExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrServiceUnavail), errors.Is(err, ErrNetwork):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the single notification text to show for err.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrConflict):
		return "the resource changed, refresh and try again"
	case errors.Is(err, ErrInvalidInput):
		return "invalid input"
	case errors.Is(err, ErrAuthExpired), errors.Is(err, ErrUnauthorized):
		return "your session has expired, please sign in again"
	case errors.Is(err, ErrNetwork):
		return "we could not reach the server, please try again"
	}
	return "something went wrong, please try again"
}
