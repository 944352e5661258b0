package main

import (
	"log/slog"

	"github.com/couchcryptid/storm-safety-advisor/internal/adapter/geoip"
	"github.com/couchcryptid/storm-safety-advisor/internal/adapter/gmaps"
	"github.com/couchcryptid/storm-safety-advisor/internal/adapter/hazard"
	httpadapter "github.com/couchcryptid/storm-safety-advisor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-safety-advisor/internal/adapter/kafka"
	"github.com/couchcryptid/storm-safety-advisor/internal/adapter/nominatim"
	"github.com/couchcryptid/storm-safety-advisor/internal/adapter/rediscache"
	"github.com/couchcryptid/storm-safety-advisor/internal/config"
	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
	"github.com/couchcryptid/storm-safety-advisor/internal/observability"
	"github.com/couchcryptid/storm-safety-advisor/internal/session"
	"github.com/couchcryptid/storm-safety-advisor/internal/view"
	"github.com/redis/go-redis/v9"
)

// advisor bundles one wired session with the resources it owns.
type advisor struct {
	session *session.Session
	board   *view.Board
	geoip   *geoip.Database
	feed    *kafkaadapter.AssessmentWriter
	redis   *redis.Client
	logger  *slog.Logger
}

func newAdvisor(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*advisor, error) {
	a := &advisor{board: view.NewBoard(), logger: logger}

	var geocoder domain.Geocoder = nominatim.NewCachedGeocoder(
		nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, metrics, logger),
		cfg.GeocodeCacheSize, cfg.GeocodeCacheTTL, metrics,
	)
	logger.Info("nominatim geocoding enabled", "url", cfg.NominatimURL,
		"cache_size", cfg.GeocodeCacheSize, "cache_ttl", cfg.GeocodeCacheTTL)

	if a.redis = rediscache.Open(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); a.redis != nil {
		geocoder = rediscache.NewGeocoder(geocoder, a.redis, cfg.GeocodeRedisTTL, metrics, logger)
		logger.Info("redis geocode cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.GeocodeRedisTTL)
	}

	if cfg.GeoIPDBPath != "" {
		db, err := geoip.Open(cfg.GeoIPDBPath, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.geoip = db
		logger.Info("geoip lookup enabled", "path", cfg.GeoIPDBPath)
	} else {
		logger.Info("geoip lookup disabled")
	}

	opts := session.Options{
		RequestTimeout:  cfg.RequestTimeout,
		RefreshInterval: cfg.RefreshInterval,
	}
	if cfg.FeedEnabled() {
		a.feed = kafkaadapter.NewAssessmentWriter(cfg, logger)
		opts.Feed = a.feed
		logger.Info("assessment feed enabled", "topic", cfg.KafkaAssessmentTopic)
	}

	presenter := session.NewPresenter(a.board, gmaps.Linker{}, cfg.ViewPaddingPx, cfg.TravelMode)
	hazards := hazard.NewClient(cfg.HazardAPIURL, cfg.HazardTimeout, metrics, logger)
	a.session = session.New(hazards, geocoder, presenter, opts, logger, metrics)
	return a, nil
}

// ipLocator returns the GeoIP database as an IP locator, or nil when none
// is configured.
func (a *advisor) ipLocator() httpadapter.IPLocator {
	if a.geoip == nil {
		return nil
	}
	return a.geoip
}

// Close releases every optional backend that was opened.
func (a *advisor) Close() {
	if a.feed != nil {
		if err := a.feed.Close(); err != nil {
			a.logger.Error("kafka writer close error", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", "error", err)
		}
	}
	if a.geoip != nil {
		if err := a.geoip.Close(); err != nil {
			a.logger.Error("geoip close error", "error", err)
		}
	}
}
