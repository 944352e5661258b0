// Package session coordinates safety checks for one advisor session: it
// stamps every request, discards stale completions, and applies the winning
// assessment to the presentation atomically.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
	"github.com/couchcryptid/storm-safety-advisor/internal/observability"
	"github.com/couchcryptid/storm-safety-advisor/internal/view"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Outcome is the terminal state of one request.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeFailed     Outcome = "failed"
	// OutcomeSkipped means no request was issued, e.g. a timer tick with no
	// baseline to refresh.
	OutcomeSkipped Outcome = "skipped"
)

// Result reports how a check ended.
type Result struct {
	Request    domain.RefreshRequest
	Outcome    Outcome
	Assessment *domain.SafetyAssessment
	Err        error
}

// Message is the user-facing text for a failed result, empty otherwise.
func (r Result) Message() string {
	if r.Outcome != OutcomeFailed {
		return ""
	}
	return domain.UserMessage(r.Err)
}

// Feed receives applied assessments in request order. An assessment
// overtaken by a newer publish is dropped.
type Feed interface {
	Publish(ctx context.Context, sessionID string, req domain.RefreshRequest, a domain.SafetyAssessment) error
}

// Options tunes a Session. Zero values fall back to defaults.
type Options struct {
	RequestTimeout  time.Duration
	RefreshInterval time.Duration
	Feed            Feed
	Clock           clockwork.Clock
}

const defaultRequestTimeout = 15 * time.Second

// baseline is the subject of the last applied assessment; timer refreshes
// re-query it without geocoding again.
type baseline struct {
	subject domain.Coordinate
	place   domain.Place
}

// Session is one user's advisor state.
type Session struct {
	id        string
	hazards   domain.HazardService
	geocoder  domain.Geocoder
	presenter *Presenter
	opts      Options
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	running   atomic.Bool

	mu       sync.Mutex
	issued   uint64
	current  *domain.SafetyAssessment
	baseline *baseline
	escape   *domain.Route

	// pubMu orders feed publishes; published is the last request ID sent.
	pubMu     sync.Mutex
	published uint64
}

// New creates a session.
func New(hazards domain.HazardService, geocoder domain.Geocoder, presenter *Presenter, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Session {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		hazards:   hazards,
		geocoder:  geocoder,
		presenter: presenter,
		opts:      opts,
		clock:     clock,
		logger:    logger.With("session_id", id),
		metrics:   metrics,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CheckManual assesses a typed city and state.
func (s *Session) CheckManual(ctx context.Context, city, state string) Result {
	place := domain.Place{City: strings.TrimSpace(city), State: strings.TrimSpace(state)}
	if !place.Complete() {
		return s.reject(domain.OriginManual, domain.ErrMissingInput)
	}

	req := s.begin(domain.OriginManual, "Checking safety for "+place.Label()+"...")
	return s.run(ctx, req, func(ctx context.Context) (domain.Coordinate, domain.Place, error) {
		subject, err := domain.ResolveCoordinates(ctx, s.geocoder, place, s.logger)
		return subject, place, err
	})
}

// CheckGeolocation assesses the position reported by locator. A nil locator
// means no geolocation source is available.
func (s *Session) CheckGeolocation(ctx context.Context, locator domain.Geolocator) Result {
	if locator == nil {
		return s.reject(domain.OriginGeolocation, domain.ErrGeolocationUnavailable)
	}

	req := s.begin(domain.OriginGeolocation, "Getting your location...")
	return s.run(ctx, req, func(ctx context.Context) (domain.Coordinate, domain.Place, error) {
		subject, err := locator.Locate(ctx)
		if err != nil {
			if !domain.IsResolutionError(err) {
				err = fmt.Errorf("%w: %w", domain.ErrGeolocationFailed, err)
			}
			return domain.Coordinate{}, domain.Place{}, err
		}
		place, err := domain.ResolvePlace(ctx, s.geocoder, subject, s.logger)
		return subject, place, err
	})
}

// Refresh re-assesses the baseline subject. Without a baseline it issues
// nothing and reports OutcomeSkipped.
func (s *Session) Refresh(ctx context.Context) Result {
	s.mu.Lock()
	b := s.baseline
	s.mu.Unlock()
	if b == nil {
		return Result{Outcome: OutcomeSkipped}
	}

	req := s.begin(domain.OriginTimer, "")
	return s.run(ctx, req, func(context.Context) (domain.Coordinate, domain.Place, error) {
		return b.subject, b.place, nil
	})
}

// Run refreshes on every tick of RefreshInterval until ctx is cancelled.
// A non-positive interval disables ticking but Run still blocks until ctx
// is done so the session lifecycle stays the same.
func (s *Session) Run(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	if s.opts.RefreshInterval <= 0 {
		s.logger.Info("auto-refresh disabled")
		<-ctx.Done()
		return
	}

	s.logger.Info("auto-refresh started", "interval", s.opts.RefreshInterval)
	s.metrics.AutoRefreshRunning.Set(1)
	defer s.metrics.AutoRefreshRunning.Set(0)

	ticker := s.clock.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("auto-refresh stopping", "reason", ctx.Err())
			return
		case <-ticker.Chan():
			res := s.Refresh(ctx)
			if res.Outcome != OutcomeSkipped {
				s.logger.Debug("auto-refresh tick", "request_id", res.Request.ID, "outcome", res.Outcome)
			}
		}
	}
}

// CheckReadiness returns nil once the refresh loop is running.
func (s *Session) CheckReadiness(_ context.Context) error {
	if !s.running.Load() {
		return errors.New("session refresh loop is not running")
	}
	return nil
}

// Current returns the applied assessment, or nil before the first one.
func (s *Session) Current() *domain.SafetyAssessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	a := s.current.Clone()
	return &a
}

// Escape returns the route of the bound escape action. Triggering it does
// not unbind it; only the next applied assessment changes it.
func (s *Session) Escape() (domain.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.escape == nil {
		return domain.Route{}, domain.ErrNoEscapeAction
	}
	return *s.escape, nil
}

// begin stamps a new request. It becomes the only request allowed to change
// the presentation.
func (s *Session) begin(origin domain.Origin, status string) domain.RefreshRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	req := domain.RefreshRequest{ID: s.issued, Origin: origin, IssuedAt: s.clock.Now().UTC()}
	if status != "" {
		s.presenter.Notify(view.Notice{Kind: view.NoticeStatus, Text: status, RequestID: req.ID})
	}
	s.metrics.RefreshRequests.WithLabelValues(string(origin)).Inc()
	s.logger.Debug("request issued", "request_id", req.ID, "origin", origin)
	return req
}

// reject reports a precondition failure that never became a request.
func (s *Session) reject(origin domain.Origin, err error) Result {
	s.mu.Lock()
	s.presenter.Notify(view.Notice{Kind: view.NoticeError, Text: domain.UserMessage(err)})
	s.mu.Unlock()

	s.metrics.RefreshOutcomes.WithLabelValues(string(origin), string(OutcomeFailed)).Inc()
	return Result{Request: domain.RefreshRequest{Origin: origin}, Outcome: OutcomeFailed, Err: err}
}

type resolveFunc func(ctx context.Context) (domain.Coordinate, domain.Place, error)

// run resolves and queries without holding the lock, then completes.
func (s *Session) run(parent context.Context, req domain.RefreshRequest, resolve resolveFunc) Result {
	ctx, cancel := context.WithTimeout(parent, s.opts.RequestTimeout)
	defer cancel()

	subject, place, err := resolve(ctx)
	if err != nil {
		return s.complete(parent, req, nil, place, timeoutOr(ctx, err))
	}

	resp, err := s.hazards.CheckSafety(ctx, subject, place)
	if err != nil {
		return s.complete(parent, req, nil, place, timeoutOr(ctx, err))
	}

	a := domain.Assess(resp, subject, place.Label())
	return s.complete(parent, req, &a, place, nil)
}

// complete performs the staleness check and the presentation change as one
// step under the session lock.
func (s *Session) complete(ctx context.Context, req domain.RefreshRequest, a *domain.SafetyAssessment, place domain.Place, err error) Result {
	log := s.logger.With("request_id", req.ID, "origin", req.Origin)

	s.mu.Lock()
	if req.ID != s.issued {
		latest := s.issued
		s.mu.Unlock()
		s.metrics.RefreshOutcomes.WithLabelValues(string(req.Origin), string(OutcomeSuperseded)).Inc()
		log.Debug("discarding stale result", "latest_request_id", latest, "error", err)
		return Result{Request: req, Outcome: OutcomeSuperseded}
	}

	if err != nil {
		s.presenter.Notify(view.Notice{Kind: view.NoticeError, Text: domain.UserMessage(err), RequestID: req.ID})
		s.mu.Unlock()
		s.metrics.RefreshOutcomes.WithLabelValues(string(req.Origin), string(OutcomeFailed)).Inc()
		if domain.IsResolutionError(err) {
			log.Info("check could not resolve location", "error", err)
		} else {
			log.Error("check failed", "error", err)
		}
		return Result{Request: req, Outcome: OutcomeFailed, Err: err}
	}

	s.current = a
	s.baseline = &baseline{subject: a.Subject, place: place}
	s.escape = s.presenter.Apply(*a)
	s.metrics.DominantSeverity.Set(float64(a.DominantSeverity))
	s.mu.Unlock()

	s.metrics.RefreshOutcomes.WithLabelValues(string(req.Origin), string(OutcomeApplied)).Inc()
	log.Info("assessment applied",
		"location", a.Location,
		"severity", a.DominantSeverity.String(),
		"inside_alert_zone", a.InsideAlertZone,
		"alerts", len(a.Alerts),
		"safe_cities", len(a.SafeCities),
	)

	s.publish(context.WithoutCancel(ctx), req, a.Clone(), log)

	out := a.Clone()
	return Result{Request: req, Outcome: OutcomeApplied, Assessment: &out}
}

// publish sends an applied assessment to the feed. Publishes are serialized
// and an assessment older than the last one published is dropped, so the
// feed never steps back to a superseded state.
func (s *Session) publish(ctx context.Context, req domain.RefreshRequest, a domain.SafetyAssessment, log *slog.Logger) {
	if s.opts.Feed == nil {
		return
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if req.ID <= s.published {
		log.Debug("skipping stale feed publish", "last_published_id", s.published)
		return
	}
	if err := s.opts.Feed.Publish(ctx, s.id, req, a); err != nil {
		s.metrics.FeedPublishErrors.Inc()
		log.Warn("assessment feed publish failed", "error", err)
		return
	}
	s.published = req.ID
}

// timeoutOr maps expiry of the request deadline onto domain.ErrTimeout.
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}
