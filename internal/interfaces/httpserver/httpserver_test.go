package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainreplicate "github.com/janhq/replicate-mcp/internal/domain/replicate"
	"github.com/janhq/replicate-mcp/internal/domain/template"
	"github.com/janhq/replicate-mcp/internal/infrastructure/auth"
	"github.com/janhq/replicate-mcp/internal/infrastructure/config"
	infrareplicate "github.com/janhq/replicate-mcp/internal/infrastructure/replicate"
	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver/routes/mcp"
)

func newTestServer(t *testing.T, upstreamStatus int) (*HTTPServer, *infrareplicate.Client) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(upstreamStatus)
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{HTTPPort: "0", APIToken: "r8_test"}
	client := infrareplicate.NewClient(infrareplicate.ClientConfig{
		APIToken:    cfg.APIToken,
		BaseURL:     upstream.URL,
		HTTPTimeout: 5 * time.Second,
		CircuitBreaker: infrareplicate.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			SuccessThreshold: 1,
			Timeout:          time.Minute,
			MaxHalfOpenCalls: 1,
		},
	})
	registry, err := template.NewRegistry(template.Builtin()...)
	require.NoError(t, err)
	service := domainreplicate.NewReplicateService(client, registry, domainreplicate.ServiceConfig{})
	route := mcp.NewMCPRoute(mcp.NewReplicateMCP(service), mcp.NewTemplateMCP(service))

	validator, err := auth.NewValidator(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	return NewHTTPServer(cfg, route, validator, client), client
}

func serve(s *HTTPServer, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t, http.StatusOK)

	rec := serve(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middlewares.RequestIDHeader))

	rec = serve(s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, http.MethodGet, "/health/auth", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReportsOpenCircuit(t *testing.T) {
	s, client := newTestServer(t, http.StatusServiceUnavailable)

	_, err := client.ListHardware(context.Background())
	require.Error(t, err)

	rec := serve(s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "circuit-open")
}

func TestMCPMethodGuard(t *testing.T) {
	s, _ := newTestServer(t, http.StatusOK)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "{"},
		{"missing method", `{"jsonrpc":"2.0","id":1}`},
		{"unsupported method", `{"jsonrpc":"2.0","id":1,"method":"sampling/createMessage"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, http.MethodPost, "/v1/mcp", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			assert.NotEmpty(t, resp["request_id"])
		})
	}
}

func TestMCPInitializeOverHTTP(t *testing.T) {
	s, _ := newTestServer(t, http.StatusOK)

	rec := serve(s, http.MethodPost, "/v1/mcp", `{"jsonrpc":"2.0","id":1,"method":"initialize",
		"params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), mcp.ServerName)
}
