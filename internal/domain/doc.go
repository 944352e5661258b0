// Package domain holds the safety assessment core: the severity scale, the
// hazard backend response model, and the pure transform that turns one
// hazard response into a SafetyAssessment.
//
// # Severity Scale
//
// Hazard alerts carry one of four labels, ordered
//
//	minor < moderate < severe < extreme
//
// plus the implicit level "safe" for a location with no active alert.
// Labels are matched case-insensitively ("Severe", "SEVERE", " severe ").
// Anything else, including an empty or non-string label, ranks as minor.
// Only severe and extreme trigger an escape action.
//
// # Hazard Backend Conventions
//
// The backend answers GET /checkSafety?lat=..&lon=..&city=..&state=.. with
//
//	{
//	  "location_inside_alert": true,
//	  "active_alerts": [{"type": "Tornado Warning", "severity": "Severe"}],
//	  "nearest_safe_cities": [{"name": "Tampa", "lat": 27.95, "lon": -82.46, "distance_km": 136.2}]
//	}
//
// No schema is published, so every field is treated as optional:
// location_inside_alert defaults to false and both lists default to empty.
// nearest_safe_cities usually arrives sorted by distance_km but Assess sorts
// it again. A missing or negative distance_km is replaced with the haversine
// distance from the subject.
//
// # Geocoding
//
// Reverse geocoding picks the first non-empty of city, town, village, county
// and the first non-empty of state_code, state. A reverse lookup that yields
// no city or state means the check cannot proceed. Forward geocoding only
// ever uses the provider's first candidate.
package domain
