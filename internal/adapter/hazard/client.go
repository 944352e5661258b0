package hazard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
	"github.com/couchcryptid/storm-safety-advisor/internal/observability"
)

// maxBodyBytes bounds how much of a backend response is read.
const maxBodyBytes = 1 << 20

// Client implements domain.HazardService against the checkSafety endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a hazard backend client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		metrics:    metrics,
		logger:     logger,
	}
}

// CheckSafety asks the backend whether subject lies inside an active alert
// zone. Transport failures, non-2xx statuses, and malformed bodies all wrap
// domain.ErrHazardQuery.
func (c *Client) CheckSafety(ctx context.Context, subject domain.Coordinate, place domain.Place) (domain.HazardResponse, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(subject.Lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(subject.Lon, 'f', -1, 64)},
		"city":  {place.City},
		"state": {place.State},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/checkSafety?"+params.Encode(), nil)
	if err != nil {
		return domain.HazardResponse{}, c.fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.HazardQueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.HazardResponse{}, c.fail(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.HazardResponse{}, c.fail(fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.HazardResponse{}, c.fail(fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 256)))
	}

	parsed, err := domain.ParseHazardResponse(body)
	if err != nil {
		return domain.HazardResponse{}, c.fail(err)
	}

	c.logger.Debug("hazard query complete",
		"location", place.Label(),
		"alerts", len(parsed.ActiveAlerts),
		"safe_cities", len(parsed.NearestSafeCities),
		"duration", time.Since(start),
	)
	return parsed, nil
}

func (c *Client) fail(err error) error {
	c.metrics.HazardQueryErrors.Inc()
	return fmt.Errorf("%w: %w", domain.ErrHazardQuery, err)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
