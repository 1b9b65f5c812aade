// Package config defines the configuration for the uniform recommendation
// service. Configuration is loaded once at process startup and is immutable
// thereafter; code and configuration stay strictly separated.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Any missing required value or invalid format fails startup immediately.
package config

import (
	"time"

	"github.com/BadgerOps/WOTSapp-sub001/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used in configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"wotsapp-recommendations"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server    ServerConfig
	Database  DatabaseConfig
	Weather   WeatherConfig
	Uniform   UniformConfig
	Scheduler SchedulerConfig
	AWS       AWSConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// WeatherConfig holds the upstream weather provider settings.
type WeatherConfig struct {
	APIKey SecretString `envconfig:"WEATHER_API_KEY" validate:"required"`
	// Location is the provider query for the unit's geography, e.g.
	// "Annapolis,MD" or "38.97,-76.49".
	Location    string        `envconfig:"WEATHER_LOCATION" validate:"required"`
	BaseURL     string        `envconfig:"WEATHER_BASE_URL"` // override for local stubs
	SnapshotTTL time.Duration `envconfig:"WEATHER_SNAPSHOT_TTL" default:"15m"`
	Timeout     time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
}

// UniformConfig holds the recommendation evaluation tuning.
type UniformConfig struct {
	// Timezone is the unit's local timezone; target dates, twilight, and
	// slot post times are interpreted in it.
	Timezone string `envconfig:"UNIFORM_TIMEZONE" default:"America/New_York"`
	// TwilightWindowMinutes is the half-width of the twilight band around
	// sunrise and sunset.
	TwilightWindowMinutes int `envconfig:"TWILIGHT_WINDOW_MINUTES" default:"30" validate:"min=0,max=180"`
	// PrecipFallbackThreshold is the chance-of-precipitation percentage at
	// which a rule's weather-type condition matches even when the current
	// condition text does not mention precipitation.
	PrecipFallbackThreshold float64 `envconfig:"PRECIP_FALLBACK_THRESHOLD" default:"50" validate:"min=0,max=100"`
	// ForecastWindowStartMinutes / ForecastWindowEndMinutes bound the
	// future window aggregated for each evaluation.
	ForecastWindowStartMinutes int `envconfig:"FORECAST_WINDOW_START_MINUTES" default:"60" validate:"min=0"`
	ForecastWindowEndMinutes   int `envconfig:"FORECAST_WINDOW_END_MINUTES" default:"240" validate:"min=0"`
	// RecommendationExpiry is how long a pending recommendation stays
	// actionable before it is considered stale.
	RecommendationExpiry time.Duration `envconfig:"RECOMMENDATION_EXPIRY" default:"6h"`
}

// SchedulerConfig holds the slot guard loop settings.
type SchedulerConfig struct {
	TickInterval time.Duration `envconfig:"SCHEDULER_TICK_INTERVAL" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// AnnouncementQueue receives announcement.created events for the
	// push-notification worker.
	AnnouncementQueue string `envconfig:"SQS_ANNOUNCEMENTS" validate:"required,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
