package domain

import "errors"

// Input-resolution failures. None of them reaches the hazard backend.
var (
	ErrMissingInput           = errors.New("city and state are required")
	ErrGeolocationUnavailable = errors.New("geolocation not supported")
	ErrGeolocationFailed      = errors.New("geolocation failed")
	ErrPlaceUnresolved        = errors.New("could not determine city/state")
	ErrLocationNotFound       = errors.New("no coordinates for location")
)

var (
	// ErrHazardQuery wraps every hazard backend failure.
	ErrHazardQuery = errors.New("hazard query failed")

	// ErrTimeout marks a request that produced no terminal response in time.
	ErrTimeout = errors.New("request timed out")

	// ErrNoEscapeAction is returned when no escape route is currently offered.
	ErrNoEscapeAction = errors.New("no escape action bound")
)

// IsResolutionError reports whether err is an input-resolution failure.
// Timeouts are not, even when they interrupted resolution.
func IsResolutionError(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return false
	}
	return errors.Is(err, ErrMissingInput) ||
		errors.Is(err, ErrGeolocationUnavailable) ||
		errors.Is(err, ErrGeolocationFailed) ||
		errors.Is(err, ErrPlaceUnresolved) ||
		errors.Is(err, ErrLocationNotFound)
}

// UserMessage maps an error onto the text shown to the user. A timeout wins
// over whatever step it interrupted.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "The safety check timed out. Please try again."
	case errors.Is(err, ErrMissingInput):
		return "Please enter both city and state!"
	case errors.Is(err, ErrGeolocationUnavailable):
		return "Geolocation not supported."
	case errors.Is(err, ErrGeolocationFailed):
		return "Could not get your location."
	case errors.Is(err, ErrPlaceUnresolved):
		return "Could not determine city/state from your location."
	case errors.Is(err, ErrLocationNotFound):
		return "Could not find coordinates for this location."
	case errors.Is(err, ErrNoEscapeAction):
		return "No escape route is available right now."
	default:
		return "Could not fetch data."
	}
}
