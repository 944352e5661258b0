// Package rediscache provides a Redis-backed geocoding cache shared across
// advisor instances.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-safety-advisor/internal/adapter/nominatim"
	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
	"github.com/couchcryptid/storm-safety-advisor/internal/observability"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "advisor:geo:"

// Store is the subset of the go-redis client used by the cache.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Open returns a client for addr, or nil when addr is empty.
func Open(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// Geocoder decorates a Geocoder with a Redis lookaside cache. Redis failures
// are logged and fall through to the inner geocoder.
type Geocoder struct {
	inner   domain.Geocoder
	store   Store
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewGeocoder wraps inner with a Redis cache tier.
func NewGeocoder(inner domain.Geocoder, store Store, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Geocoder {
	return &Geocoder{inner: inner, store: store, ttl: ttl, metrics: metrics, logger: logger}
}

func (g *Geocoder) ForwardGeocode(ctx context.Context, city, state string) (domain.GeocodingResult, error) {
	return g.lookup(ctx, nominatim.ForwardKey(city, state), func() (domain.GeocodingResult, error) {
		return g.inner.ForwardGeocode(ctx, city, state)
	})
}

func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	return g.lookup(ctx, nominatim.ReverseKey(lat, lon), func() (domain.GeocodingResult, error) {
		return g.inner.ReverseGeocode(ctx, lat, lon)
	})
}

func (g *Geocoder) lookup(ctx context.Context, key string, fetch func() (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	key = keyPrefix + key

	raw, err := g.store.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached domain.GeocodingResult
		if jerr := json.Unmarshal([]byte(raw), &cached); jerr == nil {
			g.metrics.GeocodeCache.WithLabelValues("redis", "hit").Inc()
			return cached, nil
		}
		g.logger.Warn("discarding corrupt geocode cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		g.logger.Warn("geocode cache read failed", "key", key, "error", err)
	}
	g.metrics.GeocodeCache.WithLabelValues("redis", "miss").Inc()

	result, err := fetch()
	if err != nil || !result.Found() {
		return result, err
	}

	b, err := json.Marshal(result)
	if err != nil {
		return result, nil
	}
	if err := g.store.Set(ctx, key, string(b), g.ttl).Err(); err != nil {
		g.logger.Warn("geocode cache write failed", "key", key, "error", err)
	}
	return result, nil
}
