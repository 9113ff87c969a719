package mcp

import (
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/replicate-mcp/internal/utils/platformerrors"
)

// toolErrorPayload is the JSON error object carried by failed tool results.
type toolErrorPayload struct {
	Code      int64  `json:"code"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	ErrorID   string `json:"error_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// errorKind names the caller-facing error category.
func errorKind(t platformerrors.ErrorType) string {
	switch t {
	case platformerrors.ErrorTypeValidation:
		return "invalid-input"
	case platformerrors.ErrorTypeNotFound:
		return "not-found"
	case platformerrors.ErrorTypeRateLimited:
		return "rate-limited"
	case platformerrors.ErrorTypeUnavailable, platformerrors.ErrorTypeUnauthorized:
		return "upstream-unavailable"
	default:
		return "internal"
	}
}

func newToolErrorPayload(err error) toolErrorPayload {
	var platformErr *platformerrors.PlatformError
	if !errors.As(err, &platformErr) {
		return toolErrorPayload{
			Code:    platformerrors.CodeInternalError,
			Type:    errorKind(platformerrors.ErrorTypeInternal),
			Message: "internal error",
		}
	}
	return toolErrorPayload{
		Code:      platformerrors.ErrorTypeToRPCCode(platformErr.Type),
		Type:      errorKind(platformErr.Type),
		Message:   platformErr.Message,
		ErrorID:   platformErr.UUID,
		RequestID: platformErr.RequestID,
	}
}

// toolError converts err into a tool result with isError set. The process
// keeps serving; a failed call affects only its own result.
func toolError(tool string, err error) *mcp.CallToolResult {
	payload := newToolErrorPayload(err)

	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		platformerrors.LogError(log.With().Str("tool", tool).Logger(), platformErr)
	} else {
		log.Error().Err(err).Str("tool", tool).Msg("tool failed with unclassified error")
	}

	text, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		text = []byte(`{"code":-32603,"type":"internal","message":"internal error"}`)
	}
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
		StructuredContent: payload,
	}
}
