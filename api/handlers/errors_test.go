package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkparse-api/api/dto/responses"
	"linkparse-api/core/errors"
)

func TestToFailure(t *testing.T) {
	tests := []struct {
		name           string
		input          error
		expectedStatus int
		expectedMsg    string
		retryAfter     string
	}{
		{
			name:           "InvalidURLError returns 400",
			input:          &errors.InvalidURLError{URL: "nope", Reason: "missing scheme"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "missing scheme",
		},
		{
			name:           "ValidationError returns 400",
			input:          &errors.ValidationError{Field: "url", Message: "is required"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "is required",
		},
		{
			name:           "SecurityRejectedError hides detail",
			input:          &errors.SecurityRejectedError{Host: "10.0.0.1", Detail: "private address"},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedMsg:    "url could not be fetched",
		},
		{
			name:           "wrapped SecurityRejectedError",
			input:          fmt.Errorf("parse: %w", &errors.SecurityRejectedError{Host: "localhost"}),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedMsg:    "url could not be fetched",
		},
		{
			name:           "OverloadedError returns 503 with Retry-After",
			input:          &errors.OverloadedError{Domain: "example.com", RetryAfter: 1500 * time.Millisecond},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "retry later",
			retryAfter:     "2",
		},
		{
			name:           "OverloadedError without hint defaults to one second",
			input:          &errors.OverloadedError{Domain: "example.com"},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "retry later",
			retryAfter:     "1",
		},
		{
			name:           "TimeoutError returns 504",
			input:          &errors.TimeoutError{Operation: "parse", Budget: time.Second},
			expectedStatus: http.StatusGatewayTimeout,
			expectedMsg:    "timed out",
		},
		{
			name:           "unknown error returns 500",
			input:          fmt.Errorf("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := toFailure(tt.input)
			require.Error(t, err)

			var statusErr huma.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.expectedStatus, statusErr.GetStatus())
			assert.Contains(t, err.Error(), tt.expectedMsg)

			failure, ok := err.(*responses.ParseFailure)
			require.True(t, ok)
			assert.False(t, failure.Success)
			assert.Equal(t, "webview", failure.Type)
			assert.Equal(t, "fetch-error", failure.FallbackReason)
			assert.Equal(t, tt.retryAfter, failure.GetHeaders().Get("Retry-After"))
		})
	}

	assert.Nil(t, toFailure(nil))
}
