package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/linkwise/linkwise/pkg/config"
	"github.com/linkwise/linkwise/pkg/database"
	"github.com/linkwise/linkwise/pkg/tracing"
)

const defaultOperatorSecret = "change-this-to-a-secure-secret"

// Verification provider names.
const (
	ProviderMock = "mock"
	ProviderHTTP = "http"
)

// Session store names.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all configuration for the onboarding service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"ONBOARDING_HTTP_PORT" envDefault:"8080"`

	// PostgreSQL (funnel audit)
	Postgres           database.PostgresConfig
	FunnelAuditEnabled bool          `env:"FUNNEL_AUDIT_ENABLED" envDefault:"true"`
	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis (session key space)
	Redis        database.RedisConfig
	SessionStore string `env:"SESSION_STORE" envDefault:"redis"`

	// Kafka
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsEnabled bool     `env:"EVENTS_ENABLED" envDefault:"true"`

	// Tracing
	Tracing tracing.Config

	// Matching backend
	BackendBaseURL string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8000"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	// Service credential for the operator outreach endpoints.
	BackendAdminToken string `env:"BACKEND_ADMIN_TOKEN"`

	// Image upload collaborator
	UploadURL     string `env:"UPLOAD_URL" envDefault:"http://localhost:8090/upload"`
	UploadMaxSize int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`

	// SMS verification
	VerificationProvider string        `env:"VERIFICATION_PROVIDER" envDefault:"mock"`
	VerificationBaseURL  string        `env:"VERIFICATION_BASE_URL"`
	VerificationAPIKey   string        `env:"VERIFICATION_API_KEY"`
	VerificationMockCode string        `env:"VERIFICATION_MOCK_CODE" envDefault:"123456"`
	VerificationPerMin   float64       `env:"VERIFICATION_REQUESTS_PER_MINUTE" envDefault:"5"`
	VerificationBurst    int           `env:"VERIFICATION_BURST" envDefault:"3"`
	VerificationCodeTTL  time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"5m"`
	DefaultCountryCode   string        `env:"DEFAULT_COUNTRY_CODE" envDefault:"+1"`

	// Browser session
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"lw_session"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	FlowIdleTimeout     time.Duration `env:"FLOW_IDLE_TIMEOUT" envDefault:"15m"`
	FlowSweepInterval   time.Duration `env:"FLOW_SWEEP_INTERVAL" envDefault:"1m"`

	// Operator dashboard
	OperatorJWTSecret string `env:"OPERATOR_JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// pprof
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from a local .env file, if any, and the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithDotenv(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("load onboarding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	switch c.VerificationProvider {
	case ProviderMock:
		if c.Environment == "production" {
			return fmt.Errorf("VERIFICATION_PROVIDER %q is not allowed in production", ProviderMock)
		}
	case ProviderHTTP:
		if c.VerificationBaseURL == "" {
			return fmt.Errorf("VERIFICATION_BASE_URL is required for provider %q", ProviderHTTP)
		}
	default:
		return fmt.Errorf("unknown VERIFICATION_PROVIDER %q", c.VerificationProvider)
	}

	switch c.SessionStore {
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.BackendBaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be set")
	}
	if c.FlowIdleTimeout <= 0 {
		return fmt.Errorf("FLOW_IDLE_TIMEOUT must be positive, got %s", c.FlowIdleTimeout)
	}
	if c.FlowSweepInterval <= 0 {
		return fmt.Errorf("FLOW_SWEEP_INTERVAL must be positive, got %s", c.FlowSweepInterval)
	}

	// In non-development environments, require an explicitly set, strong operator secret.
	if c.Environment != "development" {
		if c.OperatorJWTSecret == defaultOperatorSecret {
			return fmt.Errorf("OPERATOR_JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.OperatorJWTSecret) < 32 {
			return fmt.Errorf("OPERATOR_JWT_SECRET must be at least 32 characters long, got %d", len(c.OperatorJWTSecret))
		}
	}

	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
