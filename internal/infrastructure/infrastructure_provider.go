package infrastructure

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog/log"

	domainreplicate "github.com/janhq/replicate-mcp/internal/domain/replicate"
	"github.com/janhq/replicate-mcp/internal/domain/template"
	"github.com/janhq/replicate-mcp/internal/infrastructure/auth"
	"github.com/janhq/replicate-mcp/internal/infrastructure/config"
	infrareplicate "github.com/janhq/replicate-mcp/internal/infrastructure/replicate"
)

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,
	ProvideServiceConfig,

	// Replicate client
	ProvideReplicateClient,
	wire.Bind(new(domainreplicate.Client), new(*infrareplicate.Client)),

	// Parameter templates
	ProvideTemplateRegistry,

	// Auth validator
	ProvideAuthValidator,
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideServiceConfig extracts the domain service settings
func ProvideServiceConfig(cfg *config.Config) domainreplicate.ServiceConfig {
	return domainreplicate.ServiceConfig{DefaultLimit: cfg.ListLimit}
}

// ProvideReplicateClient provides the Replicate API client
func ProvideReplicateClient(cfg *config.Config) *infrareplicate.Client {
	return infrareplicate.NewClient(infrareplicate.ClientConfig{
		APIToken:    cfg.APIToken,
		BaseURL:     cfg.BaseURL,
		HTTPTimeout: cfg.HTTPTimeoutDuration(),
		CircuitBreaker: infrareplicate.CircuitBreakerConfig{
			Enabled:          cfg.CBEnabled,
			FailureThreshold: cfg.CBFailureThreshold,
			SuccessThreshold: cfg.CBSuccessThreshold,
			Timeout:          cfg.CBTimeoutDuration(),
			MaxHalfOpenCalls: cfg.CBMaxHalfOpen,
		},
	})
}

// ProvideTemplateRegistry loads built-in templates plus the optional YAML file
func ProvideTemplateRegistry(cfg *config.Config) (*template.Registry, error) {
	registry, err := template.NewRegistryFromFile(cfg.TemplatesFile)
	if err != nil {
		return nil, err
	}
	log.Info().Int("templates", registry.Len()).Str("file", cfg.TemplatesFile).Msg("parameter templates loaded")
	return registry, nil
}

// ProvideAuthValidator provides the auth validator
func ProvideAuthValidator(ctx context.Context, cfg *config.Config) (*auth.Validator, error) {
	// Get global logger from zerolog
	logger := log.Logger
	return auth.NewValidator(ctx, cfg, logger)
}
