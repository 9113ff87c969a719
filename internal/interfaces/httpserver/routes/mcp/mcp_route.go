package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/replicate-mcp/internal/infrastructure/metrics"
	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver/responses"
	"github.com/janhq/replicate-mcp/internal/utils/platformerrors"
)

const (
	ServerName    = "replicate-mcp"
	ServerVersion = "1.0.0"
)

var allowedMCPMethods = map[string]bool{
	// Initialization / handshake
	"initialize":                true,
	"notifications/initialized": true,
	"ping":                      true,

	// Tools
	"tools/list": true,
	"tools/call": true,

	// Resources
	"resources/list":           true,
	"resources/templates/list": true,
	"resources/read":           true,
}

type MCPRoute struct {
	replicateMCP *ReplicateMCP
	templateMCP  *TemplateMCP
	mcpServer    *mcp.Server
	httpHandler  http.Handler
}

func NewMCPRoute(
	replicateMCP *ReplicateMCP,
	templateMCP *TemplateMCP,
) *MCPRoute {
	impl := &mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}
	server := mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: "Tools for browsing Replicate models and running predictions. " +
			"Predictions are asynchronous: create_prediction returns immediately and get_prediction polls the status.",
	})

	replicateMCP.RegisterTools(server)
	templateMCP.RegisterTools(server)
	templateMCP.RegisterResources(server)

	return &MCPRoute{
		replicateMCP: replicateMCP,
		templateMCP:  templateMCP,
		mcpServer:    server,
		httpHandler: mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return server
		}, &mcp.StreamableHTTPOptions{Stateless: true}),
	}
}

// Server returns the underlying MCP server.
func (route *MCPRoute) Server() *mcp.Server {
	return route.mcpServer
}

// RunStdio serves MCP over stdin/stdout until the host disconnects or ctx ends.
func (route *MCPRoute) RunStdio(ctx context.Context) error {
	log.Info().Msg("Serving MCP over stdio")
	return route.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func (route *MCPRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/mcp",
		MCPMethodGuard(allowedMCPMethods),
		route.serveMCP,
	)
}

// serveMCP streams Model Context Protocol responses using the underlying MCP server.
// @Summary MCP endpoint for Replicate tools
// @Description Handles Model Context Protocol (MCP) requests over HTTP. Supports MCP methods: initialize, ping, tools/list, tools/call, resources/list, resources/templates/list, resources/read.
// @Description
// @Description **Available Tools:**
// @Description - `list_models` / `search_models`: Browse or search public models (params: owner, query, cursor, limit).
// @Description - `get_model_details` / `get_model_versions`: Inspect a model in owner/name form.
// @Description - `create_prediction`: Start a prediction (params: input, version, model, template, webhook, webhook_events_filter).
// @Description - `get_prediction` / `cancel_prediction` / `list_predictions`: Track predictions.
// @Description - `list_collections` / `get_collection_details`: Curated collections.
// @Description - `list_hardware`: Hardware SKUs.
// @Description - `list_templates` / `get_template`: Parameter templates for sd, llama and controlnet families.
// @Description
// @Description **MCP Protocol:**
// @Description - Request format: JSON-RPC 2.0 with method and params
// @Description - Response format: Server-Sent Events (SSE) stream
// @Description - Stateless mode (no session management)
// @Tags MCP API
// @Accept json
// @Produce text/event-stream
// @Param request body object true "MCP JSON-RPC request payload (e.g., {\"jsonrpc\":\"2.0\",\"method\":\"tools/list\",\"id\":1})"
// @Success 200 {string} string "Streamed MCP response in SSE format"
// @Failure 400 {object} responses.ErrorResponse "Invalid MCP request payload or unsupported method"
// @Failure 401 {object} responses.ErrorResponse "Missing or invalid bearer token"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/mcp [post]
func (route *MCPRoute) serveMCP(reqCtx *gin.Context) {
	// Force acceptable content types for go-sdk streamable handler even if client omits Accept.
	reqCtx.Request.Header.Set("Accept", "application/json, text/event-stream")
	route.httpHandler.ServeHTTP(reqCtx.Writer, reqCtx.Request)
}

func MCPMethodGuard(allowedMethods map[string]bool) gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		bodyBytes, err := io.ReadAll(reqCtx.Request.Body)
		if err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "failed to read MCP request body", "f10df80f-1651-4faa-8a75-3d91814d7990")
			return
		}
		_ = reqCtx.Request.Body.Close()

		if len(bodyBytes) == 0 {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "empty MCP request body", "abf862e2-f2a8-4bd7-b1b7-56fc16647759")
			return
		}

		reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var payload struct {
			Method string `json:"method"`
		}

		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid MCP request payload", "81f2eaae-8aa1-4569-95ec-c7a611fda0d0")
			return
		}

		if payload.Method == "" {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "missing method field in MCP request", "7b3c9e5a-2f4d-4a1e-9c8b-1d5f3e7a9b2c")
			return
		}

		if !allowedMethods[payload.Method] {
			metrics.RecordRequest(payload.Method, "rejected")
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "unsupported MCP method: "+payload.Method, "6e5f62bb-a0fb-4146-969b-7d6dd1bbe8d6")
			return
		}

		reqCtx.Next()
		metrics.RecordRequest(payload.Method, "accepted")
	}
}
