package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/careerdesk/pkg/feature"
	"github.com/dmitrymomot/careerdesk/pkg/storage"
)

// Error codes returned in the JSON error body.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeInvalidType     = storage.ErrCodeInvalidType
	CodeTooLarge        = storage.ErrCodeTooLarge
	CodeNotFound        = "not_found"
	CodeBadRequest      = "bad_request"
	CodeForbidden       = "forbidden"
	CodeInternal        = "internal"
)

// HTTPError is an error with everything needed to render it.
type HTTPError struct {
	// Err is the cause, logged but never sent to clients.
	Err error

	Message   string
	ErrorCode string
	Code      int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates an HTTPError without a cause.
func NewHTTPError(code int, errorCode, message string) *HTTPError {
	return &HTTPError{Code: code, ErrorCode: errorCode, Message: message}
}

func badRequest(message string, cause error) *HTTPError {
	return &HTTPError{Code: http.StatusBadRequest, ErrorCode: CodeBadRequest, Message: message, Err: cause}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// toHTTPError maps core errors onto HTTP semantics.
func toHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var maxBytes *http.MaxBytesError
	var verr *storage.FileValidationError

	switch {
	case errors.Is(err, storage.ErrUnauthenticated):
		return &HTTPError{Err: err, Code: http.StatusUnauthorized, ErrorCode: CodeUnauthenticated, Message: "authentication required"}
	case errors.As(err, &maxBytes):
		return &HTTPError{Err: err, Code: http.StatusRequestEntityTooLarge, ErrorCode: CodeTooLarge, Message: "file exceeds size limit"}
	case errors.As(err, &verr):
		return validationError(verr)
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, feature.ErrUnknownFeature):
		return &HTTPError{Err: err, Code: http.StatusNotFound, ErrorCode: CodeNotFound, Message: "not found"}
	case errors.Is(err, storage.ErrInvalidKey), errors.Is(err, storage.ErrInvalidOwner):
		return &HTTPError{Err: err, Code: http.StatusBadRequest, ErrorCode: CodeBadRequest, Message: "invalid file reference"}
	case errors.Is(err, storage.ErrAccessDenied):
		return &HTTPError{Err: err, Code: http.StatusInternalServerError, ErrorCode: CodeInternal, Message: "storage unavailable"}
	default:
		return &HTTPError{Err: err, Code: http.StatusInternalServerError, ErrorCode: CodeInternal, Message: "internal error"}
	}
}

func validationError(verr *storage.FileValidationError) *HTTPError {
	switch verr.Code {
	case storage.ErrCodeTooLarge:
		return &HTTPError{Err: verr, Code: http.StatusRequestEntityTooLarge, ErrorCode: CodeTooLarge, Message: verr.Message}
	case storage.ErrCodeInvalidType:
		return &HTTPError{Err: verr, Code: http.StatusBadRequest, ErrorCode: CodeInvalidType, Message: verr.Message}
	default:
		return &HTTPError{Err: verr, Code: http.StatusBadRequest, ErrorCode: verr.Code, Message: verr.Message}
	}
}

// writeError renders err as JSON. Server-side failures are logged with
// their cause; client errors are not.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := toHTTPError(err)

	if httpErr.Code >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	s.writeJSON(w, r, httpErr.Code, errorBody{
		Error:     httpErr.Message,
		Code:      httpErr.ErrorCode,
		RequestID: GetRequestID(r.Context()),
	})
}
