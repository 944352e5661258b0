// Package view models the map surface the advisor renders into: markers,
// viewport, the alert panel, the escape action, and a transient notice.
//
// All mutation goes through Widget.Batch so readers never observe a
// half-applied update.
package view

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
)

// Default viewport before any assessment has been applied.
var (
	DefaultCenter = domain.Coordinate{Lat: 28.5383, Lon: -81.3792}
	DefaultZoom   = 10
)

// MarkerID is a handle returned by AddMarker.
type MarkerID uint64

// MarkerKind distinguishes the subject marker from safe-city markers.
type MarkerKind string

const (
	KindSubject  MarkerKind = "subject"
	KindSafeCity MarkerKind = "safe_city"
)

// Marker is one pin on the map.
type Marker struct {
	ID       MarkerID          `json:"id"`
	Kind     MarkerKind        `json:"kind"`
	Position domain.Coordinate `json:"position"`
	Color    Color             `json:"color"`
	Popup    string            `json:"popup"`
}

// Bounds is the rectangle the map is fitted to.
type Bounds struct {
	SouthWest domain.Coordinate `json:"south_west"`
	NorthEast domain.Coordinate `json:"north_east"`
	PaddingPx int               `json:"padding_px"`
}

// Viewport is either a center/zoom pair or fitted bounds.
type Viewport struct {
	Center domain.Coordinate `json:"center"`
	Zoom   int               `json:"zoom,omitempty"`
	Bounds *Bounds           `json:"bounds,omitempty"`
}

// Panel is the textual alert summary shown next to the map.
type Panel struct {
	Headline        string   `json:"headline"`
	Location        string   `json:"location"`
	Severity        string   `json:"severity"`
	InsideAlertZone bool     `json:"inside_alert_zone"`
	Alerts          []string `json:"alerts"`
	NoActiveAlerts  bool     `json:"no_active_alerts"`
	SafeCities      []string `json:"safe_cities"`
}

// EscapeAction is the bound "go to safe city" control.
type EscapeAction struct {
	Label string       `json:"label"`
	Route domain.Route `json:"route"`
}

// NoticeKind classifies a transient notice.
type NoticeKind string

const (
	NoticeStatus NoticeKind = "status"
	NoticeError  NoticeKind = "error"
)

// Notice is transient status or error text.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Text      string     `json:"text"`
	RequestID uint64     `json:"request_id,omitempty"`
}

// Snapshot is a consistent copy of the board at one revision.
type Snapshot struct {
	Revision uint64        `json:"revision"`
	Markers  []Marker      `json:"markers"`
	Viewport Viewport      `json:"viewport"`
	Panel    *Panel        `json:"panel,omitempty"`
	Escape   *EscapeAction `json:"escape,omitempty"`
	Notice   *Notice       `json:"notice,omitempty"`
	Legend   []LegendEntry `json:"legend"`
}

// Tx is the mutation surface available inside a batch.
type Tx interface {
	AddMarker(m Marker) MarkerID
	RemoveMarker(id MarkerID)
	FitBounds(points []domain.Coordinate, paddingPx int)
	SetPanel(p *Panel)
	SetEscape(e *EscapeAction)
	SetNotice(n *Notice)
}

// Widget is a rendering surface that applies batches atomically.
type Widget interface {
	Batch(fn func(tx Tx))
}

// Board is an in-memory Widget. It is safe for concurrent use.
type Board struct {
	mu     sync.RWMutex
	state  boardState
	nextID MarkerID
}

type boardState struct {
	revision uint64
	markers  map[MarkerID]Marker
	viewport Viewport
	panel    *Panel
	escape   *EscapeAction
	notice   *Notice
}

// NewBoard returns an empty board at the default viewport.
func NewBoard() *Board {
	return &Board{state: boardState{
		markers:  make(map[MarkerID]Marker),
		viewport: Viewport{Center: DefaultCenter, Zoom: DefaultZoom},
	}}
}

// Batch runs fn against a working copy and commits it as one revision.
func (b *Board) Batch(fn func(tx Tx)) {
	b.mu.Lock()
	tx := &boardTx{board: b, next: b.state.clone()}
	fn(tx)
	tx.next.revision = b.state.revision + 1
	b.state = tx.next
	b.mu.Unlock()
}

// Snapshot returns a copy of the current board.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() Snapshot {
	s := b.state.clone()
	markers := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		markers = append(markers, m)
	}
	slices.SortFunc(markers, func(x, y Marker) int { return cmp.Compare(x.ID, y.ID) })
	return Snapshot{
		Revision: s.revision,
		Markers:  markers,
		Viewport: s.viewport,
		Panel:    s.panel,
		Escape:   s.escape,
		Notice:   s.notice,
		Legend:   Legend(),
	}
}

func (s boardState) clone() boardState {
	out := s
	out.markers = make(map[MarkerID]Marker, len(s.markers))
	for id, m := range s.markers {
		out.markers[id] = m
	}
	if s.viewport.Bounds != nil {
		b := *s.viewport.Bounds
		out.viewport.Bounds = &b
	}
	if s.panel != nil {
		p := *s.panel
		p.Alerts = slices.Clone(s.panel.Alerts)
		p.SafeCities = slices.Clone(s.panel.SafeCities)
		out.panel = &p
	}
	if s.escape != nil {
		e := *s.escape
		out.escape = &e
	}
	if s.notice != nil {
		n := *s.notice
		out.notice = &n
	}
	return out
}

type boardTx struct {
	board *Board
	next  boardState
}

func (tx *boardTx) AddMarker(m Marker) MarkerID {
	tx.board.nextID++
	m.ID = tx.board.nextID
	tx.next.markers[m.ID] = m
	return m.ID
}

// RemoveMarker is a no-op for unknown handles.
func (tx *boardTx) RemoveMarker(id MarkerID) {
	delete(tx.next.markers, id)
}

// FitBounds fits the viewport to the smallest rectangle holding every point.
// An empty slice leaves the viewport unchanged.
func (tx *boardTx) FitBounds(points []domain.Coordinate, paddingPx int) {
	if len(points) == 0 {
		return
	}
	sw := domain.Coordinate{Lat: math.Inf(1), Lon: math.Inf(1)}
	ne := domain.Coordinate{Lat: math.Inf(-1), Lon: math.Inf(-1)}
	for _, p := range points {
		sw.Lat = math.Min(sw.Lat, p.Lat)
		sw.Lon = math.Min(sw.Lon, p.Lon)
		ne.Lat = math.Max(ne.Lat, p.Lat)
		ne.Lon = math.Max(ne.Lon, p.Lon)
	}
	tx.next.viewport = Viewport{
		Center: domain.Coordinate{Lat: (sw.Lat + ne.Lat) / 2, Lon: (sw.Lon + ne.Lon) / 2},
		Bounds: &Bounds{SouthWest: sw, NorthEast: ne, PaddingPx: paddingPx},
	}
}

func (tx *boardTx) SetPanel(p *Panel)         { tx.next.panel = p }
func (tx *boardTx) SetEscape(e *EscapeAction) { tx.next.escape = e }
func (tx *boardTx) SetNotice(n *Notice)       { tx.next.notice = n }
