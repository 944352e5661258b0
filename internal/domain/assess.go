package domain

import (
	"math"
	"slices"
	"strings"
)

// Assess normalizes a hazard response into a SafetyAssessment for the given
// subject. It is pure apart from reading the package clock for AssessedAt.
//
// Defaults for a partial response: a missing location_inside_alert means
// outside every zone, missing lists mean empty lists.
func Assess(resp HazardResponse, subject Coordinate, location string) SafetyAssessment {
	inside := resp.LocationInsideAlert != nil && *resp.LocationInsideAlert

	alerts := make([]Alert, 0, len(resp.ActiveAlerts))
	for _, a := range resp.ActiveAlerts {
		label := strings.TrimSpace(string(a.Severity))
		alerts = append(alerts, Alert{
			Type:     strings.TrimSpace(a.Type),
			Severity: ParseSeverity(label),
			Label:    label,
		})
	}

	severity := SeveritySafe
	if inside && len(alerts) > 0 {
		severity = Rank(alerts)
	}

	cities := make([]SafeCity, 0, len(resp.NearestSafeCities))
	for _, c := range resp.NearestSafeCities {
		cities = append(cities, SafeCity{
			Name:       strings.TrimSpace(c.Name),
			Lat:        c.Lat,
			Lon:        c.Lon,
			DistanceKm: verifiedDistance(subject, c),
		})
	}
	// Upstream order is not trusted. Stable so equal distances keep backend order.
	slices.SortStableFunc(cities, func(a, b SafeCity) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		default:
			return 0
		}
	})

	var escape *SafeCity
	if severity.High() && len(cities) > 0 {
		nearest := cities[0]
		escape = &nearest
	}

	return SafetyAssessment{
		Subject:          subject,
		Location:         location,
		InsideAlertZone:  inside,
		DominantSeverity: severity,
		Alerts:           alerts,
		SafeCities:       cities,
		EscapeTarget:     escape,
		AssessedAt:       clock.Now().UTC(),
	}
}

// verifiedDistance returns the backend distance when it is usable, otherwise
// the great-circle distance from the subject.
func verifiedDistance(subject Coordinate, c HazardSafeCity) float64 {
	if c.DistanceKm != nil {
		d := *c.DistanceKm
		if !math.IsNaN(d) && !math.IsInf(d, 0) && d >= 0 {
			return d
		}
	}
	return HaversineKm(subject, Coordinate{Lat: c.Lat, Lon: c.Lon})
}

// HaversineKm is the great-circle distance between two points in kilometres.
func HaversineKm(a, b Coordinate) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(d float64) float64 { return d * (math.Pi / 180) }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
