package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing input", ErrMissingInput, "Please enter both city and state!"},
		{"geolocation unavailable", ErrGeolocationUnavailable, "Geolocation not supported."},
		{"geolocation failed", fmt.Errorf("%w: permission denied", ErrGeolocationFailed), "Could not get your location."},
		{"place unresolved", ErrPlaceUnresolved, "Could not determine city/state from your location."},
		{"location not found", ErrLocationNotFound, "Could not find coordinates for this location."},
		{"no escape", ErrNoEscapeAction, "No escape route is available right now."},
		{"hazard", fmt.Errorf("%w: status 500", ErrHazardQuery), "Could not fetch data."},
		{"unknown", errors.New("boom"), "Could not fetch data."},
		{"timeout", ErrTimeout, "The safety check timed out. Please try again."},
		{"timeout wins", fmt.Errorf("%w: %w", ErrTimeout, ErrLocationNotFound), "The safety check timed out. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestIsResolutionError(t *testing.T) {
	for _, err := range []error{
		ErrMissingInput,
		ErrGeolocationUnavailable,
		fmt.Errorf("locate: %w", ErrGeolocationFailed),
		ErrPlaceUnresolved,
		ErrLocationNotFound,
	} {
		assert.True(t, IsResolutionError(err), err.Error())
	}

	assert.False(t, IsResolutionError(nil))
	assert.False(t, IsResolutionError(ErrHazardQuery))
	assert.False(t, IsResolutionError(fmt.Errorf("%w: %w", ErrTimeout, ErrPlaceUnresolved)))
}
