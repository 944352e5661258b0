package domain

import (
	"fmt"
	"strings"
)

// Severity is the four-level alert scale plus SeveritySafe for "no active alert".
// The zero value is SeveritySafe. Levels compare with the usual integer operators.
type Severity int

const (
	SeveritySafe Severity = iota
	SeverityMinor
	SeverityModerate
	SeveritySevere
	SeverityExtreme
)

var severityNames = [...]string{
	SeveritySafe:     "safe",
	SeverityMinor:    "minor",
	SeverityModerate: "moderate",
	SeveritySevere:   "severe",
	SeverityExtreme:  "extreme",
}

// ParseSeverity maps an upstream alert severity label onto the scale.
// Matching is case-insensitive. Unrecognized labels (including "safe", which
// is never a valid alert severity) rank as SeverityMinor so malformed data
// degrades instead of aborting the assessment.
func ParseSeverity(label string) Severity {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "moderate":
		return SeverityModerate
	case "severe":
		return SeveritySevere
	case "extreme":
		return SeverityExtreme
	default:
		return SeverityMinor
	}
}

func (s Severity) String() string {
	if s < SeveritySafe || s > SeverityExtreme {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// High reports whether the level warrants an escape action.
func (s Severity) High() bool {
	return s >= SeveritySevere
}

// MarshalText encodes the level by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts "safe" and any alert label understood by ParseSeverity.
func (s *Severity) UnmarshalText(text []byte) error {
	if strings.EqualFold(strings.TrimSpace(string(text)), "safe") {
		*s = SeveritySafe
		return nil
	}
	*s = ParseSeverity(string(text))
	return nil
}

// Rank reduces a set of alerts to the dominant severity. An empty set is safe.
func Rank(alerts []Alert) Severity {
	a, ok := Dominant(alerts)
	if !ok {
		return SeveritySafe
	}
	// An alert is never safe, whatever its label said.
	if a.Severity < SeverityMinor {
		return SeverityMinor
	}
	return a.Severity
}

// Dominant returns the highest-ranked alert. Ties go to the earliest alert.
func Dominant(alerts []Alert) (Alert, bool) {
	if len(alerts) == 0 {
		return Alert{}, false
	}
	best := alerts[0]
	for _, a := range alerts[1:] {
		if a.Severity > best.Severity {
			best = a
		}
	}
	return best, true
}
