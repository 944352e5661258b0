package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// HazardResponse is the hazard backend's answer for one location, decoded
// tolerantly: every field may be absent. Absent fields decode to their zero
// value (nil pointer or nil slice) and Assess applies the defaults.
type HazardResponse struct {
	LocationInsideAlert *bool            `json:"location_inside_alert"`
	ActiveAlerts        []HazardAlert    `json:"active_alerts"`
	NearestSafeCities   []HazardSafeCity `json:"nearest_safe_cities"`
}

// HazardAlert is one entry of active_alerts.
type HazardAlert struct {
	Type     string      `json:"type"`
	Severity looseString `json:"severity"`
}

// HazardSafeCity is one entry of nearest_safe_cities. DistanceKm is nil when
// the backend omitted it.
type HazardSafeCity struct {
	Name       string   `json:"name"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	DistanceKm *float64 `json:"distance_km"`
}

// HazardService queries the hazard backend for a subject location.
type HazardService interface {
	CheckSafety(ctx context.Context, subject Coordinate, place Place) (HazardResponse, error)
}

// ParseHazardResponse decodes a hazard backend body. Syntactically invalid
// JSON is an error; missing fields are not.
func ParseHazardResponse(data []byte) (HazardResponse, error) {
	var resp HazardResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return HazardResponse{}, fmt.Errorf("parse hazard response: %w", err)
	}
	return resp, nil
}

// NewHazardAlert builds an alert entry, mainly for fakes and tests.
func NewHazardAlert(alertType, severity string) HazardAlert {
	return HazardAlert{Type: alertType, Severity: looseString(severity)}
}

// looseString accepts any JSON scalar for a severity label. Non-string values
// decode as the empty label, which ranks as minor.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*l = ""
		return nil
	}
	*l = looseString(s)
	return nil
}
