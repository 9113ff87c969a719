package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/replicate-mcp/internal/infrastructure/config"
)

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "", bearerToken(""))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "abc.def", bearerToken("Bearer abc.def"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
}

func TestDisabledValidatorPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v, err := NewValidator(context.Background(), &config.Config{AuthEnabled: false}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, v.Enabled())
	assert.True(t, v.Ready())

	router := gin.New()
	router.GET("/x", v.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
