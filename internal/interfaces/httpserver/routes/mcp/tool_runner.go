package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/codes"

	"github.com/janhq/replicate-mcp/internal/infrastructure/metrics"
	"github.com/janhq/replicate-mcp/internal/infrastructure/observability"
	"github.com/janhq/replicate-mcp/internal/utils/platformerrors"
)

// toolFunc is the transport-independent body of a tool.
type toolFunc[In any] func(ctx context.Context, input In) (any, error)

// handleTool adapts fn to a typed go-sdk handler. Errors become isError
// results rather than protocol errors so hosts can show them to the model.
func handleTool[In any](name string, fn toolFunc[In]) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input In) (*mcp.CallToolResult, any, error) {
		ctx = withRequestID(ctx)
		ctx, span := observability.StartToolSpan(ctx, name)
		defer span.End()

		start := time.Now()
		log.Debug().Str("tool", name).Msg("MCP tool call received")

		out, err := fn(ctx, input)
		duration := time.Since(start)

		if err != nil {
			errType := platformerrors.TypeOf(err)
			metrics.RecordToolCall(name, string(errType), duration.Seconds())
			span.RecordError(err)
			span.SetStatus(codes.Error, string(errType))
			log.Info().
				Str("tool", name).
				Str("outcome", string(errType)).
				Dur("duration", duration).
				Msg("MCP tool call failed")
			return toolError(name, err), nil, nil
		}

		metrics.RecordToolCall(name, "success", duration.Seconds())
		log.Info().
			Str("tool", name).
			Str("outcome", "success").
			Dur("duration", duration).
			Msg("MCP tool call completed")
		return nil, out, nil
	}
}

// withRequestID makes sure every tool call carries a request id, reusing the
// one set by the HTTP layer when present.
func withRequestID(ctx context.Context) context.Context {
	if id, ok := ctx.Value(platformerrors.RequestIDKey{}).(string); ok && id != "" {
		return ctx
	}
	return context.WithValue(ctx, platformerrors.RequestIDKey{}, uuid.NewString())
}
