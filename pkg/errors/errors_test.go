package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("reminder not found"), http.StatusNotFound},
		{"validation", NewValidationError("Doctor name is required."), http.StatusBadRequest},
		{"external", NewExternalError("llm failed", fmt.Errorf("boom")), http.StatusBadGateway},
		{"rate limited", NewRateLimitedError("slow down"), http.StatusTooManyRequests},
		{"unavailable", NewUnavailableError("breaker open", nil), http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("handler: %w", NewNotFoundError("x")), http.StatusNotFound},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewInternalError("failed to list reminders", cause)

	assert.Equal(t, "INTERNAL: failed to list reminders: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsType(err, ErrorTypeInternal))
	assert.False(t, IsNotFound(err))
}
