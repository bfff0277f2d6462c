package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"reauth", ReauthRequired(cause), CodeReauthRequired, http.StatusUnauthorized},
		{"refresh failed", TokenRefreshFailed(cause), CodeTokenRefreshFailed, http.StatusServiceUnavailable},
		{"rate limited", RateLimited("gmail", cause), CodeRateLimited, http.StatusTooManyRequests},
		{"external", ExternalError("gmail", cause), CodeExternalError, http.StatusBadGateway},
		{"not found", NotFound("user"), CodeNotFound, http.StatusNotFound},
		{"unauthorized default", Unauthorized(""), CodeUnauthorized, http.StatusUnauthorized},
		{"internal default", Internal(""), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestAsAppError(t *testing.T) {
	cause := errors.New("cause")
	wrapped := fmt.Errorf("handler: %w", RateLimited("gmail", cause))

	got := AsAppError(wrapped)
	assert.Equal(t, CodeRateLimited, got.Code)
	assert.Equal(t, http.StatusTooManyRequests, got.Status)
	assert.ErrorIs(t, wrapped, cause)

	plain := AsAppError(cause)
	assert.Equal(t, CodeInternalError, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.ErrorIs(t, plain, cause)
}
