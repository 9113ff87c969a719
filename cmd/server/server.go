package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/janhq/replicate-mcp/internal/infrastructure/config"
	"github.com/janhq/replicate-mcp/internal/infrastructure/logger"
	_ "github.com/janhq/replicate-mcp/internal/infrastructure/metrics" // Register Prometheus metrics
	"github.com/janhq/replicate-mcp/internal/infrastructure/observability"
	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver"
	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver/routes/mcp"
)

type Application struct {
	config     *config.Config
	mcpRoute   *mcp.MCPRoute
	httpServer *httpserver.HTTPServer
}

func init() {
	// Initialize logger with default settings
	logger.Init("info", "json")
}

// @title Replicate MCP Service
// @version 1.0
// @description Model Context Protocol (MCP) server exposing the Replicate HTTP API as tools.
// @contact.name Jan Server Team
// @contact.url https://github.com/janhq/replicate-mcp
// @BasePath /
func (app *Application) Start(ctx context.Context) error {
	switch app.config.Transport {
	case config.TransportHTTP:
		return app.httpServer.Run(ctx)
	default:
		return app.mcpRoute.RunStdio(ctx)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration; a missing REPLICATE_API_TOKEN stops here
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Re-initialize logger with config settings
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("transport", cfg.Transport).
		Str("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Replicate MCP service")

	shutdownTracing, err := observability.Setup(ctx, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up tracing")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	// Create application with dependency injection
	application, err := CreateApplication(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	if err := application.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Server stopped with error")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("Replicate MCP service stopped")
}
