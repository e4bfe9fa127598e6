package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", NewValidationError("plant", "must be 4 alphanumeric characters"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"wrapped not found", fmt.Errorf("load: %w", NewNotFoundError("request", "abc")), http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"conflict", Conflict("request already deleted"), http.StatusConflict, "CONFLICT"},
		{"authentication", ErrAuthenticationRequired, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED"},
		{"duplicate user", ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_KeepsUnderlyingMessageForInternalErrors(t *testing.T) {
	httpErr := MapErrorToHTTP(fmt.Errorf("create request: %w", errors.New("deadlock detected")))
	assert.Equal(t, "create request: deadlock detected", httpErr.Message)
}

func TestValidationError_CombinesFields(t *testing.T) {
	verr := NewValidationError("shipment_number", "is required")
	verr.Add("pallet_count", "must be at least 1")

	assert.True(t, verr.HasErrors())
	assert.Equal(t, "shipment_number: is required; pallet_count: must be at least 1", verr.Error())

	resp := MapErrorToHTTP(verr).ToErrorResponse()
	assert.Len(t, resp.Details, 2)
	assert.Equal(t, "pallet_count", resp.Details[1].Field)
}

func TestNotFoundError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewNotFoundError("user", "42"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "wrapped: user 42 not found", err.Error())
}
