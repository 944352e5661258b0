//go:build nominatim

package nominatim

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/storm-safety-advisor/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Nominatim API. Keep them rare: the usage policy
// allows at most one request per second.
// Run with: go test -tags=nominatim ./internal/adapter/nominatim/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	base := os.Getenv("NOMINATIM_URL")
	if base == "" {
		base = "https://nominatim.openstreetmap.org"
	}
	return NewClient(base, "storm-safety-advisor-smoke/1.0", 10*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "Orlando", "Florida")
	require.NoError(t, err)
	require.True(t, result.Found())

	assert.InDelta(t, 28.54, result.Lat, 0.2)
	assert.InDelta(t, -81.38, result.Lon, 0.2)
	t.Logf("forward: %+v", result)
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)
	time.Sleep(time.Second)

	result, err := c.ReverseGeocode(context.Background(), 28.5383, -81.3792)
	require.NoError(t, err)

	assert.Equal(t, "Orlando", result.City)
	assert.NotEmpty(t, result.State)
	t.Logf("reverse: %+v", result)
}
