package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/storm-safety-advisor/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserAgent     = "advisor-test/1.0"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, testUserAgent, 5*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func jsonServer(t *testing.T, check func(r *http.Request), body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Orlando", r.URL.Query().Get("city"))
		assert.Equal(t, "FL", r.URL.Query().Get("state"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
	}, `[{"lat":"28.5383","lon":"-81.3792","display_name":"Orlando, Orange County, Florida, United States"}]`)

	c := testClient(srv.URL)
	result, err := c.ForwardGeocode(context.Background(), "Orlando", "FL")
	require.NoError(t, err)

	assert.InDelta(t, 28.5383, result.Lat, 1e-9)
	assert.InDelta(t, -81.3792, result.Lon, 1e-9)
	assert.Equal(t, "Orlando", result.City)
	assert.Equal(t, "FL", result.State)
	assert.Equal(t, "Orlando, Orange County, Florida, United States", result.FormattedAddress)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "success")), 0)
}

func TestClient_ForwardGeocode_NoMatch(t *testing.T) {
	srv := jsonServer(t, nil, `[]`)

	c := testClient(srv.URL)
	result, err := c.ForwardGeocode(context.Background(), "Nowhere", "ZZ")
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "empty")), 0)
}

func TestClient_ForwardGeocode_BadCoordinates(t *testing.T) {
	srv := jsonServer(t, nil, `[{"lat":"north","lon":"-81.3","display_name":"x"}]`)

	_, err := testClient(srv.URL).ForwardGeocode(context.Background(), "Orlando", "FL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad coordinates")
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "28.538300", r.URL.Query().Get("lat"))
		assert.Equal(t, "-81.379200", r.URL.Query().Get("lon"))
	}, `{"display_name":"Orlando, Florida","address":{"city":"Orlando","state":"Florida","state_code":"FL"}}`)

	result, err := testClient(srv.URL).ReverseGeocode(context.Background(), 28.5383, -81.3792)
	require.NoError(t, err)

	assert.Equal(t, "Orlando", result.City)
	assert.Equal(t, "FL", result.State)
	assert.Equal(t, "Orlando, Florida", result.FormattedAddress)
}

func TestClient_ReverseGeocode_TownAndStateNameFallback(t *testing.T) {
	srv := jsonServer(t, nil, `{"display_name":"Kissimmee","address":{"town":"Kissimmee","state":"Florida"}}`)

	result, err := testClient(srv.URL).ReverseGeocode(context.Background(), 28.29, -81.41)
	require.NoError(t, err)
	assert.Equal(t, "Kissimmee", result.City)
	assert.Equal(t, "Florida", result.State)
}

func TestClient_ReverseGeocode_UnableToGeocode(t *testing.T) {
	srv := jsonServer(t, nil, `{"error":"Unable to geocode"}`)

	result, err := testClient(srv.URL).ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, result.City)
	assert.Empty(t, result.State)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ForwardGeocode(context.Background(), "Orlando", "FL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "error")), 0)
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := jsonServer(t, nil, `{not json`)

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 28.5, -81.3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := jsonServer(t, nil, `[]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).ForwardGeocode(ctx, "Orlando", "FL")
	require.ErrorIs(t, err, context.Canceled)
}
