package nominatim

import (
	"context"
	"encoding/json"
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

// Client implements domain.Geocoder using the OpenStreetMap Nominatim API.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client. Nominatim's usage policy
// requires an identifying User-Agent.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// ForwardGeocode returns the best match for a city and state.
func (c *Client) ForwardGeocode(ctx context.Context, city, state string) (domain.GeocodingResult, error) {
	params := url.Values{
		"city":   {city},
		"state":  {state},
		"format": {"json"},
		"limit":  {"1"},
	}

	var matches []searchResult
	if err := c.get(ctx, c.baseURL+"/search?"+params.Encode(), "forward", &matches); err != nil {
		return domain.GeocodingResult{}, err
	}
	if len(matches) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "empty").Inc()
		return domain.GeocodingResult{}, nil
	}

	best := matches[0]
	lat, errLat := strconv.ParseFloat(best.Lat, 64)
	lon, errLon := strconv.ParseFloat(best.Lon, 64)
	if errLat != nil || errLon != nil {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("decode response: bad coordinates %q,%q", best.Lat, best.Lon)
	}

	c.metrics.GeocodeRequests.WithLabelValues("forward", "success").Inc()
	return domain.GeocodingResult{
		Lat:              lat,
		Lon:              lon,
		City:             city,
		State:            state,
		FormattedAddress: best.DisplayName,
	}, nil
}

// ReverseGeocode converts coordinates to city and state. An address without
// a usable city or state comes back as an empty City or State, not an error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', 6, 64)},
		"format": {"json"},
	}

	var rev reverseResult
	if err := c.get(ctx, c.baseURL+"/reverse?"+params.Encode(), "reverse", &rev); err != nil {
		return domain.GeocodingResult{}, err
	}
	if rev.Error != "" || rev.Address == nil {
		c.logger.Debug("reverse geocode returned no address", "lat", lat, "lon", lon, "reason", rev.Error)
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
		return domain.GeocodingResult{}, nil
	}

	a := rev.Address
	c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()
	return domain.GeocodingResult{
		Lat:              lat,
		Lon:              lon,
		City:             firstNonEmpty(a.City, a.Town, a.Village, a.County),
		State:            firstNonEmpty(a.StateCode, a.State),
		FormattedAddress: rev.DisplayName,
	}, nil
}

func (c *Client) get(ctx context.Context, fullURL, method string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Nominatim API response types.

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	DisplayName string   `json:"display_name"`
	Address     *address `json:"address"`
	Error       string   `json:"error"`
}

type address struct {
	City      string `json:"city"`
	Town      string `json:"town"`
	Village   string `json:"village"`
	County    string `json:"county"`
	StateCode string `json:"state_code"`
	State     string `json:"state"`
}
