package domain

import (
	"context"
	"strings"
)

// GeocodingResult contains location data returned by a geocoding provider.
// The zero value means "no match".
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	City             string
	State            string
	FormattedAddress string
}

// Found reports whether the provider returned a usable match.
func (r GeocodingResult) Found() bool {
	return r.FormattedAddress != "" || r.City != "" || r.Lat != 0 || r.Lon != 0
}

// Geocoder converts between place names and coordinates.
type Geocoder interface {
	// ForwardGeocode returns the best match for a city and state.
	ForwardGeocode(ctx context.Context, city, state string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to city and state.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// Place is a resolved city/state pair.
type Place struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// Label renders the place as "City, ST".
func (p Place) Label() string {
	return p.City + ", " + p.State
}

// Complete reports whether both parts are present.
func (p Place) Complete() bool {
	return strings.TrimSpace(p.City) != "" && strings.TrimSpace(p.State) != ""
}
