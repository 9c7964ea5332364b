package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_SentinelAndStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		sentinel error
		status   int
		code     string
	}{
		{"validation", Validation("name", "must be between 20 and 60 characters"), ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", Conflict("account", "email", "a@b.com"), ErrConflict, http.StatusConflict, "CONFLICT"},
		{"conflict message", ConflictMsg("account already owns a store"), ErrConflict, http.StatusConflict, "CONFLICT"},
		{"not found", NotFound("store", "s-1"), ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"auth", Auth("invalid email or password"), ErrAuth, http.StatusUnauthorized, "AUTH_ERROR"},
		{"forbidden", Forbidden("insufficient permissions"), ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel), "expected %v to wrap %v", tt.err, tt.sentinel)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestValidation_CarriesFieldAndRule(t *testing.T) {
	err := Validation("password", "must be 8-16 characters")
	assert.Equal(t, "password", err.Field)
	assert.Equal(t, "must be 8-16 characters", err.Rule)
	assert.Contains(t, err.Error(), `field "password"`)
}

func TestInternal_WrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	// The client-facing message never leaks the cause.
	assert.NotContains(t, err.Message, "connection reset")
}

func TestHTTPStatus_WrappedSentinels(t *testing.T) {
	wrapped := fmt.Errorf("get store: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
