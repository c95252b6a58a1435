package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	assert.Equal(t, "ui_mismatch error: confirm button not found", New(ErrorTypeUIMismatch, "confirm button not found").Error())

	wrapped := Wrap(ErrorTypePage, errors.New("net::ERR_ABORTED"), "reload")
	assert.Equal(t, "page error: reload: net::ERR_ABORTED", wrapped.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(ErrorTypeStore, nil, "save"))
}

func TestTypeOfThroughChain(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("persist status: %w", Wrap(ErrorTypeStore, cause, "write state file"))

	assert.Equal(t, ErrorTypeStore, TypeOf(err))
	assert.True(t, Is(err, ErrorTypeStore))
	assert.False(t, Is(err, ErrorTypePage))
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
	assert.False(t, Is(nil, ErrorTypeUnknown))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      bool
	}{
		{ErrorTypePage, true},
		{ErrorTypeTimeout, true},
		{ErrorTypeStalled, true},
		{ErrorTypeAuth, false},
		{ErrorTypeUIMismatch, false},
		{ErrorTypeTransport, false},
		{ErrorTypeStore, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errorType))
		})
	}
}
