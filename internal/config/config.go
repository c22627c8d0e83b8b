package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the analytics service.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Merchant  MerchantConfig  `mapstructure:"merchant"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Security  SecurityConfig  `mapstructure:"security"`
}

// AppConfig holds application configuration.
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds store registry database configuration.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig holds snapshot cache configuration. An empty host falls
// back to the in-process cache.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig holds NATS configuration. An empty URL disables eventing.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// SentryConfig holds Sentry error tracking configuration.
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
}

// MerchantConfig holds merchant platform API configuration.
type MerchantConfig struct {
	APIVersion     string        `mapstructure:"api_version"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RetryAttempts of 1 (the default) means no automatic retry; the
	// upstream client never retries unless an operator opts in here.
	RetryAttempts int `mapstructure:"retry_attempts"`
}

// AnalyticsConfig holds snapshot composition configuration.
type AnalyticsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// FailurePolicy is "abort" or "best_effort" and applies uniformly
	// to every sub-aggregate of a snapshot build.
	FailurePolicy string `mapstructure:"failure_policy"`
	// SessionSource is "synthetic" or "reports".
	SessionSource string `mapstructure:"session_source"`
	// MaxConcurrentFetches bounds the upstream fan-out per build.
	MaxConcurrentFetches int `mapstructure:"max_concurrent_fetches"`
	// SegmentOrderFetchLimit caps the per-customer order fetches used
	// for segment top products.
	SegmentOrderFetchLimit int `mapstructure:"segment_order_fetch_limit"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"` // key for token encryption at rest
}

// Failure policy values.
const (
	FailurePolicyAbort      = "abort"
	FailurePolicyBestEffort = "best_effort"
)

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()

	_ = v.BindEnv("app.name", "APP_NAME")
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("app.port", "APP_PORT")

	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("database.name", "DB_NAME")
	_ = v.BindEnv("database.ssl_mode", "DB_SSLMODE")

	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")

	_ = v.BindEnv("nats.url", "NATS_URL")

	_ = v.BindEnv("sentry.dsn", "SENTRY_DSN")
	_ = v.BindEnv("sentry.environment", "APP_ENV")
	_ = v.BindEnv("sentry.release", "APP_VERSION")

	_ = v.BindEnv("merchant.api_version", "MERCHANT_API_VERSION")
	_ = v.BindEnv("merchant.request_timeout", "MERCHANT_REQUEST_TIMEOUT")
	_ = v.BindEnv("merchant.retry_attempts", "MERCHANT_RETRY_ATTEMPTS")

	_ = v.BindEnv("analytics.cache_ttl", "ANALYTICS_CACHE_TTL")
	_ = v.BindEnv("analytics.failure_policy", "ANALYTICS_FAILURE_POLICY")
	_ = v.BindEnv("analytics.session_source", "ANALYTICS_SESSION_SOURCE")
	_ = v.BindEnv("analytics.max_concurrent_fetches", "ANALYTICS_MAX_CONCURRENT_FETCHES")
	_ = v.BindEnv("analytics.segment_order_fetch_limit", "ANALYTICS_SEGMENT_ORDER_FETCH_LIMIT")

	_ = v.BindEnv("security.encryption_key", "ANALYTICS_ENCRYPTION_KEY")

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Analytics.FailurePolicy != FailurePolicyAbort &&
		config.Analytics.FailurePolicy != FailurePolicyBestEffort {
		return nil, fmt.Errorf("invalid failure policy %q", config.Analytics.FailurePolicy)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "service-analytics")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8011")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.release", "1.0.0")

	v.SetDefault("merchant.api_version", "2024-07")
	v.SetDefault("merchant.request_timeout", 30*time.Second)
	v.SetDefault("merchant.retry_attempts", 1)

	v.SetDefault("analytics.cache_ttl", 15*time.Minute)
	v.SetDefault("analytics.failure_policy", FailurePolicyBestEffort)
	v.SetDefault("analytics.session_source", "synthetic")
	v.SetDefault("analytics.max_concurrent_fetches", 8)
	v.SetDefault("analytics.segment_order_fetch_limit", 25)
}
