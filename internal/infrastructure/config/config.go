package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all configuration for the Replicate MCP service
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"replicate-mcp"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Transport - using REPLICATE_MCP_ prefix to avoid collisions
	Transport string `env:"REPLICATE_MCP_TRANSPORT" envDefault:"stdio"` // stdio or http
	HTTPPort  string `env:"REPLICATE_MCP_HTTP_PORT" envDefault:"8093"`
	LogLevel  string `env:"REPLICATE_MCP_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"REPLICATE_MCP_LOG_FORMAT" envDefault:"json"` // json or console

	// Upstream
	APIToken    string `env:"REPLICATE_API_TOKEN"`
	BaseURL     string `env:"REPLICATE_BASE_URL" envDefault:"https://api.replicate.com/v1"`
	HTTPTimeout int    `env:"REPLICATE_HTTP_TIMEOUT" envDefault:"30"`
	ListLimit   int    `env:"REPLICATE_LIST_LIMIT" envDefault:"5"`

	// Circuit Breaker Configuration
	CBEnabled          bool `env:"REPLICATE_CB_ENABLED" envDefault:"true"`
	CBFailureThreshold int  `env:"REPLICATE_CB_FAILURE_THRESHOLD" envDefault:"5"`
	CBSuccessThreshold int  `env:"REPLICATE_CB_SUCCESS_THRESHOLD" envDefault:"2"`
	CBTimeout          int  `env:"REPLICATE_CB_TIMEOUT" envDefault:"30"`
	CBMaxHalfOpen      int  `env:"REPLICATE_CB_MAX_HALF_OPEN" envDefault:"3"`

	// Extra parameter templates layered over the built-ins
	TemplatesFile string `env:"REPLICATE_MCP_TEMPLATES_FILE"`

	// Tracing
	OTELEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Authentication (HTTP transport only)
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	Account     string `env:"ACCOUNT"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(os.Getenv("REPLICATE_MCP_LOG_LEVEL")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_LEVEL")); global != "" {
			cfg.LogLevel = global
		}
	}
	if strings.TrimSpace(os.Getenv("REPLICATE_MCP_LOG_FORMAT")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_FORMAT")); global != "" {
			cfg.LogFormat = global
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	c.APIToken = strings.TrimSpace(c.APIToken)
	if c.APIToken == "" {
		return fmt.Errorf("REPLICATE_API_TOKEN is required")
	}

	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return fmt.Errorf("REPLICATE_MCP_TRANSPORT must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("REPLICATE_HTTP_TIMEOUT must be positive")
	}
	if c.ListLimit <= 0 {
		return fmt.Errorf("REPLICATE_LIST_LIMIT must be positive")
	}
	if c.CBEnabled {
		if c.CBFailureThreshold <= 0 || c.CBSuccessThreshold <= 0 || c.CBMaxHalfOpen <= 0 || c.CBTimeout <= 0 {
			return fmt.Errorf("REPLICATE_CB_* settings must be positive when the circuit breaker is enabled")
		}
	}

	if c.AuthEnabled {
		if strings.TrimSpace(c.AuthIssuer) == "" {
			return fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(c.Account) == "" {
			return fmt.Errorf("ACCOUNT is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(c.AuthJWKSURL) == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return nil
}

// HTTPTimeoutDuration returns the upstream timeout as a duration.
func (c *Config) HTTPTimeoutDuration() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// CBTimeoutDuration returns how long the breaker stays open.
func (c *Config) CBTimeoutDuration() time.Duration {
	return time.Duration(c.CBTimeout) * time.Second
}
