package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Geocoding GeocodingConfig `yaml:"geocoding"`
	IPLookup  IPLookupConfig  `yaml:"ipLookup"`
	Search    SearchConfig    `yaml:"search"`
	Favorites FavoritesConfig `yaml:"favorites"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent reads.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LogConfig selects level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ForecastConfig points at the timeline provider.
type ForecastConfig struct {
	BaseURL        string        `yaml:"baseUrl"`
	APIKey         string        `yaml:"apiKey"`
	Timezone       string        `yaml:"timezone"`
	Timeout        time.Duration `yaml:"timeout"`
	RequestsPerSec float64       `yaml:"requestsPerSec"`
	Burst          int           `yaml:"burst"`
	Breaker        BreakerConfig `yaml:"breaker"`
	Cache          ForecastCache `yaml:"cache"`
}

// BreakerConfig tunes the provider circuit breaker.
type BreakerConfig struct {
	MaxRequests         uint32        `yaml:"maxRequests"`
	Interval            time.Duration `yaml:"interval"`
	Timeout             time.Duration `yaml:"timeout"`
	ConsecutiveFailures uint32        `yaml:"consecutiveFailures"`
}

// ForecastCache controls timeline caching.
type ForecastCache struct {
	TTL   time.Duration `yaml:"ttl"`
	Redis RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GeocodingConfig points at the address geocoder.
type GeocodingConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// IPLookupConfig points at the IP geolocation provider.
type IPLookupConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// SearchConfig tunes the search lifecycle.
type SearchConfig struct {
	TickInterval time.Duration `yaml:"tickInterval"`
	TickStep     int           `yaml:"tickStep"`
	RunTimeout   time.Duration `yaml:"runTimeout"`
	SessionTTL   time.Duration `yaml:"sessionTtl"`
}

// FavoritesConfig selects the favorites backend.
type FavoritesConfig struct {
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// MongoConfig contains the connection URI and collection coordinates.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Favorites backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("FORECAST_BASE_URL"); v != "" {
		cfg.Forecast.BaseURL = v
	}
	if v := os.Getenv("FORECAST_API_KEY"); v != "" {
		cfg.Forecast.APIKey = v
	}
	if v := os.Getenv("FORECAST_TIMEZONE"); v != "" {
		cfg.Forecast.Timezone = v
	}
	if v := os.Getenv("FORECAST_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Forecast.Timeout = parsed
		}
	}
	if v := os.Getenv("FORECAST_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Forecast.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("FORECAST_REDIS_ENABLED"); v != "" {
		cfg.Forecast.Cache.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("FORECAST_REDIS_ADDR"); v != "" {
		cfg.Forecast.Cache.Redis.Addr = v
	}
	if v := os.Getenv("GEOCODING_BASE_URL"); v != "" {
		cfg.Geocoding.BaseURL = v
	}
	if v := os.Getenv("GEOCODING_API_KEY"); v != "" {
		cfg.Geocoding.APIKey = v
	}
	if v := os.Getenv("IPLOOKUP_BASE_URL"); v != "" {
		cfg.IPLookup.BaseURL = v
	}
	if v := os.Getenv("IPLOOKUP_TOKEN"); v != "" {
		cfg.IPLookup.Token = v
	}
	if v := os.Getenv("SEARCH_TICK_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Search.TickInterval = parsed
		}
	}
	if v := os.Getenv("SEARCH_RUN_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Search.RunTimeout = parsed
		}
	}
	if v := os.Getenv("FAVORITES_BACKEND"); v != "" {
		cfg.Favorites.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("FAVORITES_POSTGRES_DSN"); v != "" {
		cfg.Favorites.Postgres.DSN = v
	}
	if v := os.Getenv("FAVORITES_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Favorites.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("FAVORITES_MONGO_URI"); v != "" {
		cfg.Favorites.Mongo.URI = v
	}
	if v := os.Getenv("FAVORITES_MONGO_DATABASE"); v != "" {
		cfg.Favorites.Mongo.Database = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 20 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 100 * time.Millisecond,
				Exclude: []string{
					"/api/weather",
					"/api/hourly",
				},
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Forecast: ForecastConfig{
			BaseURL:        "https://api.tomorrow.io",
			Timezone:       "America/Los_Angeles",
			Timeout:        10 * time.Second,
			RequestsPerSec: 3,
			Burst:          3,
			Breaker: BreakerConfig{
				MaxRequests:         1,
				Interval:            time.Minute,
				Timeout:             30 * time.Second,
				ConsecutiveFailures: 5,
			},
			Cache: ForecastCache{
				TTL: 10 * time.Minute,
			},
		},
		Geocoding: GeocodingConfig{
			BaseURL: "https://maps.googleapis.com/maps/api/geocode/json",
			Timeout: 5 * time.Second,
		},
		IPLookup: IPLookupConfig{
			BaseURL: "https://ipinfo.io/json",
			Timeout: 5 * time.Second,
		},
		Search: SearchConfig{
			TickInterval: 300 * time.Millisecond,
			TickStep:     20,
			RunTimeout:   15 * time.Second,
			SessionTTL:   30 * time.Minute,
		},
		Favorites: FavoritesConfig{
			Backend: BackendMemory,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
			Mongo: MongoConfig{
				Database:   "weatherApp",
				Collection: "favorites",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if strings.TrimSpace(c.Forecast.BaseURL) == "" {
		return errors.New("forecast.baseUrl cannot be empty")
	}
	if c.Forecast.Timeout <= 0 {
		return errors.New("forecast.timeout must be positive")
	}
	if c.Forecast.RequestsPerSec < 0 {
		return errors.New("forecast.requestsPerSec cannot be negative")
	}
	if c.Forecast.Cache.TTL < 0 {
		return errors.New("forecast.cache.ttl cannot be negative")
	}
	if c.Forecast.Cache.Redis.Enabled && strings.TrimSpace(c.Forecast.Cache.Redis.Addr) == "" {
		return errors.New("forecast.cache.redis.addr cannot be empty when redis cache is enabled")
	}
	if strings.TrimSpace(c.Geocoding.BaseURL) == "" {
		return errors.New("geocoding.baseUrl cannot be empty")
	}
	if strings.TrimSpace(c.IPLookup.BaseURL) == "" {
		return errors.New("ipLookup.baseUrl cannot be empty")
	}
	if c.Search.TickInterval <= 0 {
		return errors.New("search.tickInterval must be positive")
	}
	if c.Search.TickStep <= 0 || c.Search.TickStep > 100 {
		return errors.New("search.tickStep must be within 1..100")
	}
	if c.Search.RunTimeout <= 0 {
		return errors.New("search.runTimeout must be positive")
	}
	switch c.Favorites.Backend {
	case BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(c.Favorites.Postgres.DSN) == "" {
			return errors.New("favorites.postgres.dsn cannot be empty for the postgres backend")
		}
	case BackendMongo:
		if strings.TrimSpace(c.Favorites.Mongo.URI) == "" {
			return errors.New("favorites.mongo.uri cannot be empty for the mongo backend")
		}
	default:
		return fmt.Errorf("favorites.backend %q is not supported", c.Favorites.Backend)
	}
	return nil
}
