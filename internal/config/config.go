package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Hazard backend.
	HazardAPIURL  string
	HazardTimeout time.Duration

	// Nominatim geocoding.
	NominatimURL       string
	NominatimUserAgent string
	GeocodeTimeout     time.Duration
	GeocodeCacheSize   int
	GeocodeCacheTTL    time.Duration

	// Optional shared geocode cache; disabled when RedisAddr is empty.
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	GeocodeRedisTTL time.Duration

	// Optional IP geolocation; disabled when GeoIPDBPath is empty.
	GeoIPDBPath string

	// Optional assessment feed; disabled when KafkaBrokers is empty.
	KafkaBrokers         []string
	KafkaAssessmentTopic string

	// Refresh coordination and presentation.
	RequestTimeout  time.Duration
	RefreshInterval time.Duration
	ViewPaddingPx   int
	TravelMode      string
}

// FeedEnabled reports whether applied assessments are published to Kafka.
func (c *Config) FeedEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	hazardTimeout, err := parsePositiveDuration("HAZARD_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parsePositiveDuration("REQUEST_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("GEOCODE_CACHE_TTL", "6h")
	if err != nil {
		return nil, err
	}
	redisTTL, err := parsePositiveDuration("GEOCODE_REDIS_TTL", "24h")
	if err != nil {
		return nil, err
	}

	// Zero disables auto-refresh, so only negative values are rejected.
	refreshInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("REFRESH_INTERVAL", "60s"))
	if err != nil || refreshInterval < 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL")
	}

	padding, err := parseNonNegativeInt("VIEW_PADDING_PX", 50)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseNonNegativeInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		HazardAPIURL:  strings.TrimRight(sharedcfg.EnvOrDefault("HAZARD_API_URL", "https://nationalweatherapi.onrender.com"), "/"),
		HazardTimeout: hazardTimeout,

		NominatimURL:       strings.TrimRight(sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"), "/"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "storm-safety-advisor/1.0"),
		GeocodeTimeout:     geocodeTimeout,
		GeocodeCacheSize:   parseCacheSize(),
		GeocodeCacheTTL:    cacheTTL,

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         redisDB,
		GeocodeRedisTTL: redisTTL,

		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		KafkaBrokers:         sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaAssessmentTopic: sharedcfg.EnvOrDefault("KAFKA_ASSESSMENT_TOPIC", "safety-assessments"),

		RequestTimeout:  requestTimeout,
		RefreshInterval: refreshInterval,
		ViewPaddingPx:   padding,
		TravelMode:      sharedcfg.EnvOrDefault("TRAVEL_MODE", "driving"),
	}

	if err := validateURL("HAZARD_API_URL", cfg.HazardAPIURL); err != nil {
		return nil, err
	}
	if err := validateURL("NOMINATIM_URL", cfg.NominatimURL); err != nil {
		return nil, err
	}
	if cfg.FeedEnabled() && cfg.KafkaAssessmentTopic == "" {
		return nil, errors.New("KAFKA_ASSESSMENT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, fallback int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
