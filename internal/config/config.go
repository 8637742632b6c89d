package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage and blob drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	BlobLocal = "local"
	BlobS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	Port     string `env:"PORT" envDefault:"5000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`

	// Redis is optional; without it rate limiting is per instance
	RedisURL string `env:"REDIS_URL"`

	// JWT Configuration
	JWTSecret           string        `env:"JWT_SECRET,required"`
	JWTKeyID            string        `env:"JWT_KEY_ID" envDefault:"v1"`
	JWTPreviousSecret   string        `env:"JWT_PREVIOUS_SECRET"` // still accepted for verification during rotation
	JWTPreviousKeyID    string        `env:"JWT_PREVIOUS_KEY_ID" envDefault:"v0"`
	JWTIssuer           string        `env:"JWT_ISSUER" envDefault:"casewise-api"`
	JWTExpiresIn        time.Duration `env:"JWT_EXPIRES_IN" envDefault:"8h"`
	JWTClockSkewSeconds int           `env:"JWT_CLOCK_SKEW_SECONDS" envDefault:"30"`

	// Documents
	BlobDriver        string `env:"BLOB_DRIVER" envDefault:"local"`
	UploadDir         string `env:"UPLOAD_DIR" envDefault:"uploads"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3AccessKey       string `env:"S3_ACCESS_KEY"`
	S3SecretKey       string `env:"S3_SECRET_KEY"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" envDefault:"true"`
	MaxUploadBytes    int64  `env:"MAX_UPLOAD_BYTES" envDefault:"20971520"`
	RequiredDocuments string `env:"REQUIRED_DOCUMENTS"` // CSV of filenames a case is expected to have

	AuditTimezone string `env:"AUDIT_TIMEZONE" envDefault:"UTC"`

	// HTTP
	CORSAllowedOrigins     string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`
	RateLimitPerUserPerMin int           `env:"RATE_LIMIT_PER_USER_PER_MIN" envDefault:"120"`
	MetricsToken           string        `env:"METRICS_TOKEN"`
	ShutdownTimeout        time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// OpenTelemetry
	OTELEnabled          bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELExporterEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELServiceName      string  `env:"OTEL_SERVICE_NAME" envDefault:"casewise-api"`
	OTELSamplingRatio    float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"0.1"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StoragePostgres, StorageMemory)
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWTKeyID == "" {
		return fmt.Errorf("JWT_KEY_ID must not be empty")
	}
	if c.JWTPreviousSecret != "" && c.JWTPreviousKeyID == c.JWTKeyID {
		return fmt.Errorf("JWT_PREVIOUS_KEY_ID must differ from JWT_KEY_ID")
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if c.JWTClockSkewSeconds < 0 {
		return fmt.Errorf("JWT_CLOCK_SKEW_SECONDS must be non-negative")
	}

	switch c.BlobDriver {
	case BlobLocal:
		if c.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required when BLOB_DRIVER=local")
		}
	case BlobS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when BLOB_DRIVER=s3")
		}
	default:
		return fmt.Errorf("BLOB_DRIVER must be %q or %q", BlobLocal, BlobS3)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("AUDIT_TIMEZONE is invalid: %w", err)
	}

	if c.OTELSamplingRatio < 0 || c.OTELSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1")
	}

	if c.RateLimitPerUserPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_USER_PER_MIN must be positive")
	}

	return nil
}

// IsDev reports whether error ids and the debug endpoint are exposed.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

func (c *Config) TelemetryEnabled() bool {
	return c.OTELEnabled && c.OTELExporterEndpoint != ""
}

// Location is the reference timezone for audit export day bounds.
func (c *Config) Location() (*time.Location, error) {
	if c.AuditTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.AuditTimezone)
}

// GetRequiredDocuments returns the configured required document names.
func (c *Config) GetRequiredDocuments() []string {
	return splitCSV(c.RequiredDocuments)
}

// GetCORSOrigins returns the allowed browser origins.
func (c *Config) GetCORSOrigins() []string {
	return splitCSV(c.CORSAllowedOrigins)
}

// GetJWTKeys returns the verification secrets by kid. The current key is
// always present and is the one used for signing.
func (c *Config) GetJWTKeys() map[string]string {
	keys := map[string]string{c.JWTKeyID: c.JWTSecret}
	if c.JWTPreviousSecret != "" {
		keys[c.JWTPreviousKeyID] = c.JWTPreviousSecret
	}
	return keys
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
