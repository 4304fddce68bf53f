package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAppError(ErrTypeSource, "fetch failed", cause)

	assert.Contains(t, err.Error(), "SOURCE")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewAppError(ErrTypeContract, "series already aggregated", nil)
	assert.Equal(t, "[CONTRACT] series already aggregated", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestAppErrorWithContext(t *testing.T) {
	err := SourceError("midtown-daily", errors.New("timeout"))
	require.NotNil(t, err.Context)
	assert.Equal(t, "midtown-daily", err.Context["alias"])
	assert.Equal(t, ErrTypeSource, err.Type)
}

func TestContractError(t *testing.T) {
	err := ContractError("re-aggregation rejected", nil)
	assert.Equal(t, ErrTypeContract, err.Type)
}

func TestAPIErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		status int
		code   string
	}{
		{"unknown location", UnknownLocationError("nowhere"), http.StatusNotFound, "UNKNOWN_LOCATION"},
		{"unknown metric", UnknownMetricError("bogus"), http.StatusBadRequest, "UNKNOWN_METRIC"},
		{"invalid timeframe", InvalidTimeframeError("hourly"), http.StatusBadRequest, "INVALID_TIMEFRAME"},
		{"rate limited", ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.code, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}
