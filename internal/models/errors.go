// Package models defines the error shapes shared between the pipeline
// core and the diagnostics HTTP surface: a structured code + message +
// details envelope, with constructors for the three fatal categories:
// input-shape errors, post-refinement feasibility violations, and I/O
// errors at the driver boundary.
package models

import "net/http"

// APIError represents a standardized error response, either from the
// HTTP surface or wrapping a core pipeline failure for logging/reporting.
type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// WithRequestID adds a request ID to the error.
func (e *APIError) WithRequestID(requestID string) *APIError {
	e.RequestID = requestID
	return e
}

// WithDetails adds additional details to the error.
func (e *APIError) WithDetails(details map[string]any) *APIError {
	e.Details = details
	return e
}

// ValidationError represents a validation error with field-specific
// messages (used when a request struct fails validator/v10 checks).
type ValidationError struct {
	*APIError
	FieldErrors map[string]string `json:"field_errors"`
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, fieldErrors map[string]string) *ValidationError {
	return &ValidationError{
		APIError:    &APIError{Code: "validation_error", Message: message},
		FieldErrors: fieldErrors,
	}
}

// Error codes for the three fatal categories.
const (
	CodeInputShapeError  = "input_shape_error"
	CodeFeasibilityError = "feasibility_error"
	CodeIOError          = "io_error"
)

// NewInputShapeError wraps an input-shape failure: a missing attribute,
// malformed tile identifier, or unknown territory code. Fatal; raised
// before any output.
func NewInputShapeError(message string) *APIError {
	return NewAPIError(CodeInputShapeError, message)
}

// NewFeasibilityError wraps a post-refinement feasibility violation,
// naming the offending tile. This always indicates a refiner bug and is
// never silently corrected at synthesis time.
func NewFeasibilityError(tileID, reason string) *APIError {
	return NewAPIError(CodeFeasibilityError, "tile "+tileID+": "+reason).
		WithDetails(map[string]any{"tile_id": tileID})
}

// NewIOError wraps an I/O failure at the driver boundary. The core
// neither retries nor swallows these; they are surfaced as-is.
func NewIOError(message string) *APIError {
	return NewAPIError(CodeIOError, message)
}

// HTTPStatusCode returns the appropriate HTTP status code for an APIError.
func (e *APIError) HTTPStatusCode() int {
	switch e.Code {
	case "method_not_allowed":
		return http.StatusMethodNotAllowed
	case "invalid_json", "invalid_query", "missing_run_id", "invalid_limit", "invalid_offset",
		CodeInputShapeError, "validation_error":
		return http.StatusBadRequest
	case "run_not_found", "not_found":
		return http.StatusNotFound
	case "list_runs_failed", "get_run_failed", "health_check_failed",
		CodeFeasibilityError, CodeIOError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
