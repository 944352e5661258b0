// Package geoip locates callers by IP address using a MaxMind GeoIP2 or
// GeoLite2 city database.
package geoip

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
	"github.com/oschwald/geoip2-golang"
)

// cityReader is the lookup surface of *geoip2.Reader.
type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

// Database wraps an opened city database.
type Database struct {
	reader cityReader
	closer func() error
	logger *slog.Logger
}

// Open loads the database at path.
func Open(path string, logger *slog.Logger) (*Database, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Database{reader: r, closer: r.Close, logger: logger}, nil
}

// Close releases the underlying database.
func (d *Database) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}

// ForIP returns a one-shot Geolocator for the given client address.
func (d *Database) ForIP(ip net.IP) domain.Geolocator {
	return &Locator{db: d, ip: ip}
}

// Locator is a Geolocator bound to one IP address.
type Locator struct {
	db *Database
	ip net.IP
}

// Locate looks the address up. Unknown, private, and malformed addresses
// fail with domain.ErrGeolocationFailed.
func (l *Locator) Locate(_ context.Context) (domain.Coordinate, error) {
	if l.ip == nil {
		return domain.Coordinate{}, fmt.Errorf("%w: no client address", domain.ErrGeolocationFailed)
	}
	if l.ip.IsLoopback() || l.ip.IsPrivate() || l.ip.IsUnspecified() {
		return domain.Coordinate{}, fmt.Errorf("%w: non-routable address %s", domain.ErrGeolocationFailed, l.ip)
	}

	rec, err := l.db.reader.City(l.ip)
	if err != nil {
		l.db.logger.Warn("geoip lookup failed", "ip", l.ip.String(), "error", err)
		return domain.Coordinate{}, fmt.Errorf("%w: %w", domain.ErrGeolocationFailed, err)
	}

	// MaxMind leaves Location zeroed when the address has no city-level fix.
	c := domain.Coordinate{Lat: rec.Location.Latitude, Lon: rec.Location.Longitude}
	if (c.Lat == 0 && c.Lon == 0) || c.Validate() != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: no location for %s", domain.ErrGeolocationFailed, l.ip)
	}

	l.db.logger.Debug("geoip located caller", "ip", l.ip.String(), "lat", c.Lat, "lon", c.Lon,
		"accuracy_km", rec.Location.AccuracyRadius)
	return c, nil
}
