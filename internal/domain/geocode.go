package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ResolvePlace reverse geocodes a coordinate into a city/state pair.
// Provider errors and incomplete addresses both degrade to ErrPlaceUnresolved:
// the caller cannot query hazards without a place.
func ResolvePlace(ctx context.Context, geocoder Geocoder, subject Coordinate, logger *slog.Logger) (Place, error) {
	if geocoder == nil {
		return Place{}, ErrPlaceUnresolved
	}

	result, err := geocoder.ReverseGeocode(ctx, subject.Lat, subject.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", subject.Lat,
			"lon", subject.Lon,
			"error", err,
		)
		return Place{}, fmt.Errorf("%w: %w", ErrPlaceUnresolved, err)
	}

	place := Place{City: strings.TrimSpace(result.City), State: strings.TrimSpace(result.State)}
	if !place.Complete() {
		logger.Info("reverse geocoding returned no city/state",
			"lat", subject.Lat,
			"lon", subject.Lon,
			"address", result.FormattedAddress,
		)
		return Place{}, ErrPlaceUnresolved
	}
	return place, nil
}

// ResolveCoordinates forward geocodes a manually entered city and state using
// the provider's best match only.
func ResolveCoordinates(ctx context.Context, geocoder Geocoder, place Place, logger *slog.Logger) (Coordinate, error) {
	if !place.Complete() {
		return Coordinate{}, ErrMissingInput
	}
	if geocoder == nil {
		return Coordinate{}, ErrLocationNotFound
	}

	result, err := geocoder.ForwardGeocode(ctx, place.City, place.State)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"city", place.City,
			"state", place.State,
			"error", err,
		)
		return Coordinate{}, fmt.Errorf("forward geocode: %w", err)
	}
	if !result.Found() {
		return Coordinate{}, ErrLocationNotFound
	}

	coord := Coordinate{Lat: result.Lat, Lon: result.Lon}
	if err := coord.Validate(); err != nil {
		logger.Warn("forward geocoding returned invalid coordinates",
			"city", place.City,
			"state", place.State,
			"error", err,
		)
		return Coordinate{}, fmt.Errorf("%w: %w", ErrLocationNotFound, err)
	}
	return coord, nil
}
