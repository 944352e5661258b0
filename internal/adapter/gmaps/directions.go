// Package gmaps builds Google Maps directions links.
package gmaps

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
)

const directionsBase = "https://www.google.com/maps/dir/"

// Linker implements domain.RouteLinker with the Maps URLs API, which needs
// no key.
type Linker struct{}

// DirectionsURL returns a directions link from origin to destination.
// An empty travelMode defaults to driving.
func (Linker) DirectionsURL(origin, destination domain.Coordinate, travelMode string) string {
	if travelMode == "" {
		travelMode = "driving"
	}
	// Coordinates are plain decimals, so only the mode needs escaping.
	return fmt.Sprintf("%s?api=1&origin=%s&destination=%s&travelmode=%s",
		directionsBase, latLon(origin), latLon(destination), url.QueryEscape(travelMode))
}

func latLon(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}
