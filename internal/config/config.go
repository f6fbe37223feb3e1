package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Kirito-012/Ancient-Health/pkg/config"
)

// Config holds the storefront service configuration, loaded from the
// environment.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"storefront"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// BackendBaseURL is the platform API every durable record lives behind.
	BackendBaseURL string        `env:"BACKEND_BASE_URL,required"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`

	// RedisAddr enables credential persistence across restarts. Empty falls
	// back to the in-memory store (sessions then live only as long as the
	// process).
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// SessionIdleTTL bounds the in-memory session graph: a session with no
	// request for this long is dropped from memory. The persisted credential
	// survives, so the session restores on its next request.
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"1h"`

	// KafkaBrokers enables analytics events. Empty disables publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"storefront.events"`

	GatewayScriptURL string `env:"GATEWAY_SCRIPT_URL" envDefault:"https://checkout.razorpay.com/v1/checkout.js"`

	BrandName       string `env:"BRAND_NAME" envDefault:"Ancient Health"`
	BrandThemeColor string `env:"BRAND_THEME_COLOR" envDefault:"#2d5f4f"`
	Currency        string `env:"CURRENCY" envDefault:"INR"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that would only fail later at
// an inconvenient time.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL %q", c.BackendBaseURL)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("session idle TTL must be positive")
	}
	return nil
}
