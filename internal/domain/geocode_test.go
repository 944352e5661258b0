package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	forwardResult GeocodingResult
	forwardErr    error
	reverseResult GeocodingResult
	reverseErr    error
	forwardCalls  int
	reverseCalls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _, _ string) (GeocodingResult, error) {
	m.forwardCalls++
	return m.forwardResult, m.forwardErr
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestResolvePlace_Success(t *testing.T) {
	geo := &mockGeocoder{
		reverseResult: GeocodingResult{City: "Orlando", State: "FL", FormattedAddress: "Orlando, Orange County, Florida"},
	}

	place, err := ResolvePlace(context.Background(), geo, orlando, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, Place{City: "Orlando", State: "FL"}, place)
	assert.Equal(t, "Orlando, FL", place.Label())
	assert.Equal(t, 1, geo.reverseCalls)
	assert.Equal(t, 0, geo.forwardCalls)
}

func TestResolvePlace_ProviderError(t *testing.T) {
	geo := &mockGeocoder{reverseErr: errors.New("rate limited")}

	_, err := ResolvePlace(context.Background(), geo, orlando, discardLogger())
	require.ErrorIs(t, err, ErrPlaceUnresolved)
	assert.True(t, IsResolutionError(err))
}

func TestResolvePlace_MissingState(t *testing.T) {
	geo := &mockGeocoder{reverseResult: GeocodingResult{City: "Orlando", FormattedAddress: "Orlando"}}

	_, err := ResolvePlace(context.Background(), geo, orlando, discardLogger())
	require.ErrorIs(t, err, ErrPlaceUnresolved)
	assert.Equal(t, "Could not determine city/state from your location.", UserMessage(err))
}

func TestResolvePlace_NilGeocoder(t *testing.T) {
	_, err := ResolvePlace(context.Background(), nil, orlando, discardLogger())
	require.ErrorIs(t, err, ErrPlaceUnresolved)
}

func TestResolveCoordinates_Success(t *testing.T) {
	geo := &mockGeocoder{
		forwardResult: GeocodingResult{Lat: 28.5383, Lon: -81.3792, FormattedAddress: "Orlando, Florida"},
	}

	coord, err := ResolveCoordinates(context.Background(), geo, Place{City: "Orlando", State: "FL"}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, orlando, coord)
	assert.Equal(t, 1, geo.forwardCalls)
}

func TestResolveCoordinates_NoCandidates(t *testing.T) {
	geo := &mockGeocoder{}

	_, err := ResolveCoordinates(context.Background(), geo, Place{City: "Nowhere", State: "ZZ"}, discardLogger())
	require.ErrorIs(t, err, ErrLocationNotFound)
	assert.Equal(t, "Could not find coordinates for this location.", UserMessage(err))
}

func TestResolveCoordinates_MissingInput(t *testing.T) {
	geo := &mockGeocoder{}

	_, err := ResolveCoordinates(context.Background(), geo, Place{City: "  ", State: "FL"}, discardLogger())
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Equal(t, 0, geo.forwardCalls)
}

func TestResolveCoordinates_ProviderErrorIsGeneric(t *testing.T) {
	geo := &mockGeocoder{forwardErr: errors.New("connection refused")}

	_, err := ResolveCoordinates(context.Background(), geo, Place{City: "Orlando", State: "FL"}, discardLogger())
	require.Error(t, err)
	assert.False(t, IsResolutionError(err))
	assert.Equal(t, "Could not fetch data.", UserMessage(err))
}

func TestResolveCoordinates_InvalidMatch(t *testing.T) {
	geo := &mockGeocoder{forwardResult: GeocodingResult{Lat: 123, Lon: 0, FormattedAddress: "Bad"}}

	_, err := ResolveCoordinates(context.Background(), geo, Place{City: "Bad", State: "XX"}, discardLogger())
	require.ErrorIs(t, err, ErrLocationNotFound)
}

func TestFixedLocator(t *testing.T) {
	c, err := FixedLocator(orlando).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orlando, c)

	_, err = FixedLocator(Coordinate{Lat: 200}).Locate(context.Background())
	require.ErrorIs(t, err, ErrGeolocationFailed)
}
