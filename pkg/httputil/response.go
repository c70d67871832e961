package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/logger"
	"github.com/linkwise/linkwise/pkg/validator"
)

// CurrentPathHeader lets the browser tell the server which page it is on, so
// an auth-expiry response only asks for navigation when it would move it.
const CurrentPathHeader = "X-Current-Path"

// UnauthenticatedRoot is where an expired session is sent.
const UnauthenticatedRoot = "/"

// Response is the standard JSON response envelope used across all services.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format. Message
// is the single notification shown to the user.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Redirect  string            `json:"redirect,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged but headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes v inside the standard envelope.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, Response{Data: v})
}

// WriteError writes a standardized error response based on the error type.
// It prefers the request-scoped logger from context (set by the RequestLogger
// middleware) over the fallback logger.
//
// Auth-expiry responses carry a redirect to the unauthenticated root unless
// the caller reports it is already there.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	writeError(w, r, err, nil, fallback)
}

// WriteErrorData is WriteError with a data payload alongside the error, for
// callers whose state moved as a result of the failure.
func WriteErrorData(w http.ResponseWriter, r *http.Request, err error, data any, fallback *slog.Logger) {
	writeError(w, r, err, data, fallback)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, data any, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Data: data,
			Error: &ErrorResponse{
				Code:      apperrors.CodeFormat,
				Message:   valErr.First(),
				Fields:    valErr.Fields(),
				RequestID: requestID,
			},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	resp := &ErrorResponse{
		Code:      codeFor(err),
		Message:   apperrors.UserMessage(err),
		RequestID: requestID,
	}

	if status == http.StatusUnauthorized && r.Header.Get(CurrentPathHeader) != UnauthenticatedRoot {
		resp.Redirect = UnauthenticatedRoot
	}

	switch {
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	case status == http.StatusServiceUnavailable:
		l.WarnContext(r.Context(), "dependency unavailable",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Data: data, Error: resp})
}

func codeFor(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return apperrors.CodeNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return apperrors.CodeConflict
	case errors.Is(err, apperrors.ErrInvalidInput):
		return apperrors.CodeInvalidInput
	case errors.Is(err, apperrors.ErrAuthExpired):
		return apperrors.CodeAuthExpired
	case errors.Is(err, apperrors.ErrNetwork):
		return apperrors.CodeNetwork
	default:
		return apperrors.CodeInternal
	}
}
