package view

import "github.com/couchcryptid/storm-safety-advisor/internal/domain"

// Color is a marker color.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
)

// LegendEntry explains one marker color.
type LegendEntry struct {
	Color Color  `json:"color"`
	Label string `json:"label"`
}

// Legend lists the marker colors in display order.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Color: ColorRed, Label: "Severe/Extreme"},
		{Color: ColorYellow, Label: "Minor/Moderate"},
		{Color: ColorGreen, Label: "Safe/No Alert"},
	}
}

// ColorFor maps a severity onto its marker color.
func ColorFor(s domain.Severity) Color {
	switch {
	case s.High():
		return ColorRed
	case s >= domain.SeverityMinor:
		return ColorYellow
	default:
		return ColorGreen
	}
}
