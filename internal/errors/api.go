package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError is a structured HTTP error response.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

var (
	ErrInvalidRequest    = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrMissingParameter  = New(http.StatusBadRequest, "MISSING_PARAMETER", "Required parameter is missing")
	ErrInvalidParameter  = New(http.StatusBadRequest, "INVALID_PARAMETER", "Invalid parameter value")
	ErrNotFound          = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
	ErrInternalServer    = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// UnknownLocationError reports a location the configuration does not carry.
func UnknownLocationError(location string) *APIError {
	return NewWithDetails(http.StatusNotFound, "UNKNOWN_LOCATION",
		fmt.Sprintf("location %q is not configured", location), location)
}

// UnknownMetricError reports a metric name outside the five KPIs.
func UnknownMetricError(metric string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "UNKNOWN_METRIC",
		fmt.Sprintf("metric %q is not recognized", metric), metric)
}

// InvalidTimeframeError reports a timeframe outside daily/weekly/monthly.
func InvalidTimeframeError(timeframe string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_TIMEFRAME",
		fmt.Sprintf("timeframe %q must be daily, weekly, or monthly", timeframe), timeframe)
}
