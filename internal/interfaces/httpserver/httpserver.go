package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/replicate-mcp/internal/infrastructure/auth"
	"github.com/janhq/replicate-mcp/internal/infrastructure/config"
	infrareplicate "github.com/janhq/replicate-mcp/internal/infrastructure/replicate"
	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver/routes/mcp"
)

// UpstreamHealth reports the circuit state of the upstream API.
type UpstreamHealth interface {
	CircuitState() infrareplicate.CircuitState
}

type HTTPServer struct {
	router        *gin.Engine
	config        *config.Config
	mcpRoute      *mcp.MCPRoute
	authValidator *auth.Validator
	upstream      UpstreamHealth
}

func NewHTTPServer(
	cfg *config.Config,
	mcpRoute *mcp.MCPRoute,
	authValidator *auth.Validator,
	upstream *infrareplicate.Client,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.MetricsRecorder())
	router.Use(middlewares.CORS())

	s := &HTTPServer{
		router:        router,
		config:        cfg,
		mcpRoute:      mcpRoute,
		authValidator: authValidator,
	}
	if upstream != nil {
		s.upstream = upstream
	}
	s.setupRoutes()
	return s
}

func (s *HTTPServer) setupRoutes() {
	// Health check endpoints
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "replicate-mcp"})
	})

	s.router.GET("/readyz", func(c *gin.Context) {
		if s.upstream != nil && s.upstream.CircuitState() == infrareplicate.StateOpen {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "service": "replicate-mcp", "upstream": "circuit-open"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": "replicate-mcp"})
	})

	s.router.GET("/health/auth", func(c *gin.Context) {
		if s.authValidator == nil || s.authValidator.Ready() {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "initializing"})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// MCP routes sit behind auth; health and metrics stay open for probes
	v1 := s.router.Group("/v1")
	if s.authValidator != nil {
		v1.Use(s.authValidator.Middleware())
	}
	s.mcpRoute.RegisterRouter(v1)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.config.HTTPPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
