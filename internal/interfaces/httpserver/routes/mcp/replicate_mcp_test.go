package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainreplicate "github.com/janhq/replicate-mcp/internal/domain/replicate"
	"github.com/janhq/replicate-mcp/internal/domain/template"
	infrareplicate "github.com/janhq/replicate-mcp/internal/infrastructure/replicate"
)

// fakeUpstream serves canned Replicate responses keyed by "METHOD path".
type fakeUpstream struct {
	mu        sync.Mutex
	requests  []string
	bodies    map[string]string
	responses map[string]string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, key)
	f.bodies[key] = string(body)
	resp, ok := f.responses[key]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not found."}`)
		return
	}
	_, _ = io.WriteString(w, resp)
}

func (f *fakeUpstream) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeUpstream) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

const modelResponse = `{
	"owner": "stability-ai",
	"name": "sdxl",
	"description": "A text-to-image generative AI model",
	"visibility": "public",
	"run_count": 71234567,
	"url": "https://replicate.com/stability-ai/sdxl",
	"cover_image_url": "https://example.com/cover.png",
	"internal_billing_id": "secret",
	"latest_version": {"id": "39ed52f2", "created_at": "2023-07-26T17:09:58Z", "openapi_schema": {}, "weights_url": "s3://hidden"}
}`

func newTestSession(t *testing.T, upstream *fakeUpstream) *mcp.ClientSession {
	t.Helper()
	if upstream.bodies == nil {
		upstream.bodies = map[string]string{}
	}
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client := infrareplicate.NewClient(infrareplicate.ClientConfig{
		APIToken:       "r8_test",
		BaseURL:        srv.URL,
		HTTPTimeout:    5 * time.Second,
		CircuitBreaker: infrareplicate.DefaultCircuitBreakerConfig(),
	})
	registry, err := template.NewRegistry(template.Builtin()...)
	require.NoError(t, err)
	service := domainreplicate.NewReplicateService(client, registry, domainreplicate.ServiceConfig{DefaultLimit: 5})
	route := NewMCPRoute(NewReplicateMCP(service), NewTemplateMCP(service))

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := route.Server().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	mcpClient := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := mcpClient.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, map[string]any) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload), text.Text)
	return res, payload
}

func TestToolsAreListed(t *testing.T) {
	session := newTestSession(t, &fakeUpstream{})
	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_models", "search_models", "get_model_details", "get_model_versions",
		"create_prediction", "get_prediction", "cancel_prediction", "list_predictions",
		"list_collections", "get_collection_details", "list_hardware",
		"list_templates", "get_template",
	}, names)
}

func TestModelDetailsOnlyReturnsAllowlistedFields(t *testing.T) {
	upstream := &fakeUpstream{responses: map[string]string{
		"GET /models/stability-ai/sdxl": modelResponse,
	}}
	session := newTestSession(t, upstream)

	res, payload := callTool(t, session, "get_model_details", map[string]any{"model": "stability-ai/sdxl"})
	require.False(t, res.IsError)

	allowed := domainreplicate.Allowlist(domainreplicate.KindModel)
	for key := range payload {
		assert.Contains(t, allowed, key)
	}
	assert.NotContains(t, payload, "internal_billing_id")
	assert.Equal(t, float64(71234567), payload["run_count"])

	latest, ok := payload["latest_version"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, latest, "weights_url")
	assert.Equal(t, "39ed52f2", latest["id"])
}

func TestMissingParameterIsInvalidInputWithoutUpstreamCall(t *testing.T) {
	upstream := &fakeUpstream{}
	session := newTestSession(t, upstream)

	calls := []struct {
		tool string
		args map[string]any
	}{
		{"get_model_details", map[string]any{}},
		{"get_model_versions", map[string]any{"model": "no-slash"}},
		{"search_models", map[string]any{}},
		{"create_prediction", map[string]any{"version": "v1"}},
		{"get_prediction", map[string]any{}},
		{"cancel_prediction", map[string]any{"prediction_id": ""}},
		{"get_collection_details", map[string]any{}},
		{"list_models", map[string]any{"cursor": "has space"}},
	}
	for _, c := range calls {
		t.Run(c.tool, func(t *testing.T) {
			res, payload := callTool(t, session, c.tool, c.args)
			assert.True(t, res.IsError)
			assert.Equal(t, "invalid-input", payload["type"])
			assert.Equal(t, float64(-32602), payload["code"])
			assert.NotEmpty(t, payload["message"])
			assert.NotEmpty(t, payload["request_id"])
		})
	}
	assert.Zero(t, upstream.requestCount())
}

func TestUpstreamNotFoundIsToolError(t *testing.T) {
	session := newTestSession(t, &fakeUpstream{})

	res, payload := callTool(t, session, "get_model_details", map[string]any{"model": "nobody/nothing"})
	assert.True(t, res.IsError)
	assert.Equal(t, "not-found", payload["type"])
	assert.Equal(t, float64(-32002), payload["code"])
	assert.Equal(t, "Not found.", payload["message"])

	// the server keeps serving after a failed call
	res, _ = callTool(t, session, "list_templates", map[string]any{})
	assert.False(t, res.IsError)
}

func TestCreatePredictionForwardsInputUnmodified(t *testing.T) {
	upstream := &fakeUpstream{responses: map[string]string{
		"POST /predictions": `{"id":"p1","version":"39ed52f2","status":"starting",
			"input":{"prompt":"a red fox","seed":42,"extra":{"list":[1,"two",null]}},
			"urls":{"get":"https://api.replicate.com/v1/predictions/p1"},"data_removed":false}`,
	}}
	session := newTestSession(t, upstream)
	input := map[string]any{
		"prompt": "a red fox",
		"seed":   42,
		"extra":  map[string]any{"list": []any{1, "two", nil}},
	}

	res, payload := callTool(t, session, "create_prediction", map[string]any{
		"version": "39ed52f2",
		"input":   input,
	})
	require.False(t, res.IsError, payload)

	var sent struct {
		Version string          `json:"version"`
		Input   json.RawMessage `json:"input"`
	}
	require.NoError(t, json.Unmarshal([]byte(upstream.body("POST /predictions")), &sent))
	assert.Equal(t, "39ed52f2", sent.Version)
	assert.JSONEq(t, `{"prompt":"a red fox","seed":42,"extra":{"list":[1,"two",null]}}`, string(sent.Input))

	assert.Equal(t, "starting", payload["status"])
	assert.NotContains(t, payload, "data_removed")
}

func TestPredictionStatusComesFromEnumeration(t *testing.T) {
	upstream := &fakeUpstream{responses: map[string]string{
		"GET /predictions/p1":         `{"id":"p1","status":"processing","logs":"step 3/50"}`,
		"POST /predictions/p1/cancel": `{"id":"p1","status":"canceled"}`,
		"GET /predictions/p2":         `{"id":"p2","status":"warming"}`,
	}}
	session := newTestSession(t, upstream)

	for _, tool := range []string{"get_prediction", "cancel_prediction"} {
		res, payload := callTool(t, session, tool, map[string]any{"prediction_id": "p1"})
		require.False(t, res.IsError)
		status, _ := payload["status"].(string)
		assert.True(t, domainreplicate.PredictionStatus(status).Valid(), status)
	}

	res, payload := callTool(t, session, "get_prediction", map[string]any{"prediction_id": "p2"})
	assert.True(t, res.IsError)
	assert.Equal(t, "upstream-unavailable", payload["type"])
}

func TestListModelsFiltersByOwner(t *testing.T) {
	upstream := &fakeUpstream{responses: map[string]string{
		"GET /models": `{"next":"https://api.replicate.com/v1/models?cursor=cD0y","previous":null,"results":[
			{"owner":"meta","name":"llama-3-8b"},
			{"owner":"stability-ai","name":"sdxl"},
			{"owner":"meta","name":"llama-3-70b"}]}`,
	}}
	session := newTestSession(t, upstream)

	res, payload := callTool(t, session, "list_models", map[string]any{"owner": "meta", "limit": 1})
	require.False(t, res.IsError)
	assert.Equal(t, float64(2), payload["total_models"])
	assert.Equal(t, "cD0y", payload["next_cursor"])
	models, ok := payload["models"].([]any)
	require.True(t, ok)
	require.Len(t, models, 1)
	assert.Equal(t, "llama-3-8b", models[0].(map[string]any)["name"])
}

func TestTemplateTools(t *testing.T) {
	session := newTestSession(t, &fakeUpstream{})

	res, payload := callTool(t, session, "list_templates", map[string]any{"family": "llama"})
	require.False(t, res.IsError)
	templates, ok := payload["templates"].([]any)
	require.True(t, ok)
	assert.Len(t, templates, 2)

	res, payload = callTool(t, session, "get_template", map[string]any{"template_id": "controlnet/canny"})
	require.False(t, res.IsError)
	assert.Equal(t, "canny", payload["control_type"])
	assert.Contains(t, payload, "parameter_schema")

	res, payload = callTool(t, session, "get_template", map[string]any{"template_id": "controlnet/blur"})
	assert.True(t, res.IsError)
	assert.Equal(t, "not-found", payload["type"])
}

func TestTemplateResources(t *testing.T) {
	session := newTestSession(t, &fakeUpstream{})
	ctx := context.Background()

	list, err := session.ListResources(ctx, &mcp.ListResourcesParams{})
	require.NoError(t, err)
	assert.Len(t, list.Resources, 8)

	templates, err := session.ListResourceTemplates(ctx, &mcp.ListResourceTemplatesParams{})
	require.NoError(t, err)
	require.Len(t, templates.ResourceTemplates, 1)
	assert.Equal(t, "template://{family}/{variant}", templates.ResourceTemplates[0].URITemplate)

	read, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "template://sd/sdxl"})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	var tmpl map[string]any
	require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &tmpl))
	assert.Equal(t, "sdxl-base", tmpl["id"])

	_, err = session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "template://sd/missing"})
	assert.Error(t, err)
}
