package platformerrors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorCarriesRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey{}, "req-1")
	cause := errors.New("boom")

	err := NewError(ctx, LayerDomain, ErrorTypeValidation, "bad input", cause, "")
	assert.Equal(t, "req-1", err.GetRequestID())
	assert.NotEmpty(t, err.GetUUID())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "[domain][VALIDATION]")
	assert.Contains(t, err.Error(), "bad input: boom")
}

func TestAsErrorKeepsType(t *testing.T) {
	ctx := context.Background()
	inner := NewError(ctx, LayerInfrastructure, ErrorTypeNotFound, "model missing", nil, "fixed-uuid")

	wrapped := AsError(ctx, LayerDomain, fmt.Errorf("lookup: %w", inner), "get model")
	assert.Equal(t, ErrorTypeNotFound, wrapped.Type)
	assert.Equal(t, "fixed-uuid", wrapped.UUID)
	assert.Equal(t, "get model: model missing", wrapped.Message)

	foreign := AsError(ctx, LayerDomain, errors.New("plain"), "oops")
	assert.Equal(t, ErrorTypeInternal, foreign.Type)
	assert.Nil(t, AsError(ctx, LayerDomain, nil, "nothing"))
}

func TestTypeMappings(t *testing.T) {
	tests := []struct {
		typ    ErrorType
		status int
		code   int64
	}{
		{ErrorTypeValidation, http.StatusBadRequest, CodeInvalidParams},
		{ErrorTypeNotFound, http.StatusNotFound, CodeNotFound},
		{ErrorTypeRateLimited, http.StatusTooManyRequests, CodeRateLimited},
		{ErrorTypeUnavailable, http.StatusBadGateway, CodeUnavailable},
		{ErrorTypeUnauthorized, http.StatusUnauthorized, CodeUnavailable},
		{ErrorTypeInternal, http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.status, ErrorTypeToHTTPStatus(tt.typ))
			assert.Equal(t, tt.code, ErrorTypeToRPCCode(tt.typ))
		})
	}
}

func TestTypeOfAndIsErrorType(t *testing.T) {
	err := NewError(context.Background(), LayerDomain, ErrorTypeRateLimited, "slow down", nil, "")
	assert.Equal(t, ErrorTypeRateLimited, TypeOf(fmt.Errorf("wrap: %w", err)))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
	assert.True(t, IsErrorType(err, ErrorTypeRateLimited))
	assert.False(t, IsErrorType(err, ErrorTypeNotFound))
	assert.False(t, IsErrorType(nil, ErrorTypeNotFound))
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := context.WithValue(context.Background(), RequestIDKey{}, "req-9")
	err := NewErrorWithContext(ctx, LayerRoute, ErrorTypeUnavailable, "upstream down", errors.New("dial"), "u-1",
		map[string]any{"operation": "get_model"})

	LogError(logger, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "upstream down", entry["message"])
	assert.Equal(t, "u-1", entry["error_uuid"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, "get_model", entry["operation"])
	assert.Equal(t, "dial", entry["error"])
}
