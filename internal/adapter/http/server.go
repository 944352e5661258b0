package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
	"github.com/couchcryptid/storm-safety-advisor/internal/session"
	"github.com/couchcryptid/storm-safety-advisor/internal/view"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes caps check request bodies.
const maxBodyBytes = 4 << 10

// Advisor is the session surface the API drives.
type Advisor interface {
	sharedobs.ReadinessChecker
	CheckManual(ctx context.Context, city, state string) session.Result
	CheckGeolocation(ctx context.Context, locator domain.Geolocator) session.Result
	Escape() (domain.Route, error)
}

// Snapshotter exposes the rendered board.
type Snapshotter interface {
	Snapshot() view.Snapshot
}

// IPLocator builds a geolocator for a caller address.
type IPLocator interface {
	ForIP(ip net.IP) domain.Geolocator
}

// Server exposes the advisor API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	advisor    Advisor
	board      Snapshotter
	locator    IPLocator
	logger     *slog.Logger
}

// NewServer creates the HTTP server. locator may be nil when IP geolocation
// is not configured.
func NewServer(addr string, advisor Advisor, board Snapshotter, locator IPLocator, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		advisor: advisor,
		board:   board,
		locator: locator,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(advisor))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/checks/manual", s.handleManual)
	mux.HandleFunc("POST /api/v1/checks/location", s.handleLocation)
	mux.HandleFunc("GET /api/v1/view", s.handleView)
	mux.HandleFunc("GET /api/v1/escape", s.handleEscape)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type manualRequest struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type checkResponse struct {
	RequestID  uint64                   `json:"request_id"`
	Origin     domain.Origin            `json:"origin"`
	Outcome    session.Outcome          `json:"outcome"`
	Message    string                   `json:"message,omitempty"`
	Assessment *domain.SafetyAssessment `json:"assessment,omitempty"`
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	var body manualRequest
	if err := decodeBody(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.writeResult(w, s.advisor.CheckManual(r.Context(), body.City, body.State))
}

// handleLocation uses a client-reported fix when the body carries one and
// falls back to IP geolocation otherwise. Half a fix is rejected.
func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	var body locationRequest
	if err := decodeBody(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if (body.Latitude == nil) != (body.Longitude == nil) {
		writeError(w, http.StatusBadRequest, "latitude and longitude must be given together")
		return
	}

	var locator domain.Geolocator
	switch {
	case body.Latitude != nil:
		locator = domain.FixedLocator{Lat: *body.Latitude, Lon: *body.Longitude}
	case s.locator != nil:
		locator = s.locator.ForIP(clientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr))
	}
	s.writeResult(w, s.advisor.CheckGeolocation(r.Context(), locator))
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.board.Snapshot())
}

func (s *Server) handleEscape(w http.ResponseWriter, _ *http.Request) {
	route, err := s.advisor.Escape()
	if err != nil {
		writeError(w, http.StatusNotFound, domain.UserMessage(err))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, route)
}

func (s *Server) writeResult(w http.ResponseWriter, res session.Result) {
	sharedobs.WriteJSON(w, statusFor(res), checkResponse{
		RequestID:  res.Request.ID,
		Origin:     res.Request.Origin,
		Outcome:    res.Outcome,
		Message:    res.Message(),
		Assessment: res.Assessment,
	})
}

func statusFor(res session.Result) int {
	switch res.Outcome {
	case session.OutcomeApplied:
		return http.StatusOK
	case session.OutcomeSuperseded:
		return http.StatusConflict
	}
	switch {
	case errors.Is(res.Err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(res.Err, domain.ErrMissingInput):
		return http.StatusBadRequest
	case domain.IsResolutionError(res.Err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// clientIP extracts the caller address from an X-Forwarded-For value or,
// failing that, the connection's RemoteAddr. The first forwarded entry wins.
func clientIP(forwardedFor, remoteAddr string) net.IP {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return net.ParseIP(host)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
