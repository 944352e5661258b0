package domain

import "context"

// Geolocator is a one-shot position source.
type Geolocator interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// FixedLocator reports a position the client already determined, such as a
// device GPS fix posted with the request.
type FixedLocator Coordinate

func (f FixedLocator) Locate(_ context.Context) (Coordinate, error) {
	c := Coordinate(f)
	if err := c.Validate(); err != nil {
		return Coordinate{}, ErrGeolocationFailed
	}
	return c, nil
}

// Route is a navigable link from the subject to a safe destination.
type Route struct {
	Origin      Coordinate `json:"origin"`
	Destination SafeCity   `json:"destination"`
	TravelMode  string     `json:"travel_mode"`
	URL         string     `json:"url"`
}

// RouteLinker turns two endpoints into an external navigation URL.
type RouteLinker interface {
	DirectionsURL(origin, destination Coordinate, travelMode string) string
}
