// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/qmobility/qmobility/internal/database"
	"github.com/qmobility/qmobility/internal/recommend"
)

// ErrInvalidConfig is returned when an environment value cannot be parsed.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full service configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel zerolog.Level

	// CityDataPath overrides the embedded city table when set.
	CityDataPath string

	DatabaseEnabled bool
	DatabaseMigrate bool
	Database        database.Config

	Telemetry TelemetryConfig
	LLM       LLMConfig

	// Thresholds tune the recommendation rule table.
	Thresholds recommend.Thresholds

	RateLimitPerMinute     int
	ChatRateLimitPerMinute int
	RequireTLS             bool
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRatio  float64
}

// LLMConfig holds settings for the hosted-model fallback.
type LLMConfig struct {
	Enabled  bool
	APIKey   string
	Model    string
	Timeout  time.Duration
	CacheTTL time.Duration

	// RequestsPerMinute caps outbound model calls. Zero disables the cap.
	RequestsPerMinute int
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads the given .env files, if present, then the environment.
// Values already set in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	p := &parser{}
	defaults := recommend.DefaultThresholds()

	cfg := Config{
		Port:         getEnvOrDefault("APP_PORT", "8080"),
		Env:          getEnvOrDefault("APP_ENV", "development"),
		LogLevel:     p.level("LOG_LEVEL", zerolog.InfoLevel),
		CityDataPath: os.Getenv("CITY_DATA_PATH"),

		DatabaseEnabled: p.boolean("DB_ENABLED", false),
		DatabaseMigrate: p.boolean("DB_MIGRATE", false),
		Database: database.Config{
			Host:            getEnvOrDefault("DB_HOST", "localhost"),
			Port:            p.integer("DB_PORT", 5432),
			User:            getEnvOrDefault("DB_USER", "qmobility"),
			Password:        getEnvOrDefault("DB_PASSWORD", "localdev"),
			Database:        getEnvOrDefault("DB_NAME", "qmobility"),
			SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxOpenConns:    p.integer("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    p.integer("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnectTimeout:  p.duration("DB_CONNECT_TIMEOUT", 5*time.Second),
		},

		Telemetry: TelemetryConfig{
			Enabled:      p.boolean("OTEL_ENABLED", false),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  p.float("OTEL_SAMPLE_RATIO", 1.0),
		},

		LLM: LLMConfig{
			Enabled:  p.boolean("LLM_ENABLED", false),
			APIKey:   os.Getenv("GEMINI_API_KEY"),
			Model:    os.Getenv("LLM_MODEL"),
			Timeout:  p.duration("LLM_TIMEOUT", 15*time.Second),
			CacheTTL: p.duration("LLM_CACHE_TTL", 10*time.Minute),

			RequestsPerMinute: p.integer("LLM_REQUESTS_PER_MINUTE", 60),
		},

		Thresholds: recommend.Thresholds{
			VeryShortKm:        p.float("RECOMMEND_VERY_SHORT_KM", defaults.VeryShortKm),
			ShortKm:            p.float("RECOMMEND_SHORT_KM", defaults.ShortKm),
			MediumKm:           p.float("RECOMMEND_MEDIUM_KM", defaults.MediumKm),
			BikeScore:          p.float("RECOMMEND_BIKE_SCORE", defaults.BikeScore),
			WalkScore:          p.float("RECOMMEND_WALK_SCORE", defaults.WalkScore),
			TransitScore:       p.float("RECOMMEND_TRANSIT_SCORE", defaults.TransitScore),
			StrongTransitScore: p.float("RECOMMEND_STRONG_TRANSIT_SCORE", defaults.StrongTransitScore),
		},

		RateLimitPerMinute:     p.integer("RATE_LIMIT_PER_MINUTE", 120),
		ChatRateLimitPerMinute: p.integer("CHAT_RATE_LIMIT_PER_MINUTE", 30),
		RequireTLS:             p.boolean("REQUIRE_TLS", false),
	}

	if err := p.err(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("%w: OTEL_SAMPLE_RATIO must be within [0, 1]", ErrInvalidConfig))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("%w: RATE_LIMIT_PER_MINUTE must be positive", ErrInvalidConfig))
	}
	if c.ChatRateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("%w: CHAT_RATE_LIMIT_PER_MINUTE must be positive", ErrInvalidConfig))
	}
	if c.LLM.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("%w: LLM_REQUESTS_PER_MINUTE must not be negative", ErrInvalidConfig))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: LLM_TIMEOUT must be positive", ErrInvalidConfig))
	}
	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: RECOMMEND_*: %w", ErrInvalidConfig, err))
	}
	if c.DatabaseEnabled {
		if err := c.Database.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: DB_*: %w", ErrInvalidConfig, err))
		}
	}
	return errors.Join(errs...)
}

// parser collects every parse failure so one Load reports them all.
type parser struct {
	errs []error
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, value, err))
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) level(key string, def zerolog.Level) zerolog.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(v))
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return lvl
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
