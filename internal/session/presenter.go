package session

import (
	"math"
	"strconv"

	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
	"github.com/couchcryptid/storm-safety-advisor/internal/view"
)

const escapeLabel = "Go to Safe City"

// Presenter renders assessments onto a view.Widget. It owns the marker
// handles of the current presentation and is not safe for concurrent use;
// Session serializes every call under its mutex.
type Presenter struct {
	widget     view.Widget
	linker     domain.RouteLinker
	paddingPx  int
	travelMode string

	subject view.MarkerID
	safe    []view.MarkerID
}

// NewPresenter creates a presenter for widget. Escape routes are linked with
// linker using travelMode.
func NewPresenter(widget view.Widget, linker domain.RouteLinker, paddingPx int, travelMode string) *Presenter {
	return &Presenter{
		widget:     widget,
		linker:     linker,
		paddingPx:  paddingPx,
		travelMode: travelMode,
	}
}

// Apply replaces the whole presentation with a in a single batch and
// returns the bound escape route, or nil when none is offered.
func (p *Presenter) Apply(a domain.SafetyAssessment) *domain.Route {
	route := p.route(a)

	p.widget.Batch(func(tx view.Tx) {
		if p.subject != 0 {
			tx.RemoveMarker(p.subject)
		}
		for _, id := range p.safe {
			tx.RemoveMarker(id)
		}

		p.subject = tx.AddMarker(view.Marker{
			Kind:     view.KindSubject,
			Position: a.Subject,
			Color:    view.ColorFor(a.DominantSeverity),
			Popup:    "You are here: " + a.Location,
		})

		points := make([]domain.Coordinate, 0, len(a.SafeCities)+1)
		points = append(points, a.Subject)
		p.safe = p.safe[:0]
		for _, c := range a.SafeCities {
			p.safe = append(p.safe, tx.AddMarker(view.Marker{
				Kind:     view.KindSafeCity,
				Position: c.Coordinate(),
				Color:    view.ColorGreen,
				Popup:    "Safe City: " + c.Name + " (" + formatKm(c.DistanceKm) + " km)",
			}))
			points = append(points, c.Coordinate())
		}
		tx.FitBounds(points, p.paddingPx)

		tx.SetPanel(panelFor(a))
		if route != nil {
			tx.SetEscape(&view.EscapeAction{Label: escapeLabel, Route: *route})
		} else {
			tx.SetEscape(nil)
		}
		tx.SetNotice(nil)
	})

	return route
}

// Notify shows transient text without touching markers, panel, or the
// escape action.
func (p *Presenter) Notify(n view.Notice) {
	p.widget.Batch(func(tx view.Tx) {
		tx.SetNotice(&n)
	})
}

func (p *Presenter) route(a domain.SafetyAssessment) *domain.Route {
	if a.EscapeTarget == nil {
		return nil
	}
	dest := *a.EscapeTarget
	r := &domain.Route{
		Origin:      a.Subject,
		Destination: dest,
		TravelMode:  p.travelMode,
	}
	if p.linker != nil {
		r.URL = p.linker.DirectionsURL(a.Subject, dest.Coordinate(), p.travelMode)
	}
	return r
}

func panelFor(a domain.SafetyAssessment) *view.Panel {
	panel := &view.Panel{
		Headline:        "Your location is safe!",
		Location:        a.Location,
		Severity:        a.DominantSeverity.String(),
		InsideAlertZone: a.InsideAlertZone,
		Alerts:          make([]string, 0, len(a.Alerts)),
		SafeCities:      make([]string, 0, len(a.SafeCities)),
	}
	if a.InsideAlertZone {
		panel.Headline = "You are in an alert zone!"
		for _, al := range a.Alerts {
			label := al.Label
			if label == "" {
				label = al.Severity.String()
			}
			panel.Alerts = append(panel.Alerts, al.Type+" - "+label)
		}
	}
	panel.NoActiveAlerts = len(panel.Alerts) == 0
	for _, c := range a.SafeCities {
		panel.SafeCities = append(panel.SafeCities, c.Name+" - "+formatKm(c.DistanceKm)+" km")
	}
	return panel
}

// formatKm renders a distance to one decimal, dropping a trailing ".0".
func formatKm(km float64) string {
	return strconv.FormatFloat(math.Round(km*10)/10, 'f', -1, 64)
}
