package domain

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Validate rejects non-finite or out-of-range coordinates.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", c.Lat)
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", c.Lon)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lon)
}

// Alert is one active hazard alert covering the subject location.
type Alert struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	// Label is the severity text exactly as the backend sent it.
	Label string `json:"label,omitempty"`
}

// SafeCity is a candidate destination outside every active alert zone.
type SafeCity struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distance_km"`
}

// Coordinate returns the city's position.
func (c SafeCity) Coordinate() Coordinate {
	return Coordinate{Lat: c.Lat, Lon: c.Lon}
}

// SafetyAssessment is the normalized verdict for one completed hazard query.
// It is built once by Assess and never modified afterwards.
type SafetyAssessment struct {
	Subject          Coordinate `json:"subject"`
	Location         string     `json:"location"`
	InsideAlertZone  bool       `json:"inside_alert_zone"`
	DominantSeverity Severity   `json:"dominant_severity"`
	Alerts           []Alert    `json:"alerts"`
	SafeCities       []SafeCity `json:"safe_cities"`
	EscapeTarget     *SafeCity  `json:"escape_target,omitempty"`
	AssessedAt       time.Time  `json:"assessed_at"`
}

// Clone returns a copy that shares no slices or pointers with a.
func (a SafetyAssessment) Clone() SafetyAssessment {
	a.Alerts = slices.Clone(a.Alerts)
	a.SafeCities = slices.Clone(a.SafeCities)
	if a.EscapeTarget != nil {
		target := *a.EscapeTarget
		a.EscapeTarget = &target
	}
	return a
}

// Origin identifies what triggered a refresh.
type Origin string

const (
	OriginGeolocation Origin = "geolocation"
	OriginManual      Origin = "manual"
	OriginTimer       Origin = "timer"
)

// RefreshRequest stamps one assessment attempt. IDs increase strictly within a session.
type RefreshRequest struct {
	ID       uint64    `json:"id"`
	Origin   Origin    `json:"origin"`
	IssuedAt time.Time `json:"issued_at"`
}
