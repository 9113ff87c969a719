package template

import (
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Builtin()...)
	require.NoError(t, err)
	return r
}

func TestBuiltinTemplatesResolve(t *testing.T) {
	r := builtinRegistry(t)
	assert.Equal(t, 8, r.Len())

	for _, key := range []string{
		"sd/sdxl", "sd/sd15", "llama/chat", "llama/completion",
		"controlnet/canny", "controlnet/depth", "controlnet/pose", "controlnet/segmentation",
	} {
		tmpl, ok := r.Get(key)
		require.True(t, ok, key)
		assert.NoError(t, r.Validate(key, withPrompt(tmpl)), key)
	}
}

func withPrompt(t *Template) map[string]any {
	params := map[string]any{}
	for k, v := range t.DefaultParameters {
		params[k] = v
	}
	params["prompt"] = "test"
	if t.ModelType == "controlnet" {
		params["image"] = "aGVsbG8="
	}
	return params
}

func TestApplyCallerValuesWin(t *testing.T) {
	r := builtinRegistry(t)
	params := map[string]any{"prompt": "a lighthouse", "guidance_scale": 9.0}

	merged, err := r.Apply("sd/sd15", params)
	require.NoError(t, err)
	assert.Equal(t, 9.0, merged["guidance_scale"])
	assert.Equal(t, 512, merged["width"])
	assert.Equal(t, "a lighthouse", merged["prompt"])
	assert.Len(t, params, 2, "caller params must not be modified")
}

func TestApplyRejectsInvalidParameters(t *testing.T) {
	r := builtinRegistry(t)
	tests := []struct {
		name   string
		key    string
		params map[string]any
	}{
		{"missing prompt", "sd/sdxl", map[string]any{}},
		{"width not a multiple of 8", "sd/sdxl", map[string]any{"prompt": "x", "width": 1020}},
		{"width above maximum", "sd/sdxl", map[string]any{"prompt": "x", "width": 4096}},
		{"width below minimum", "sd/sdxl", map[string]any{"prompt": "x", "width": 256}},
		{"unknown scheduler", "sd/sd15", map[string]any{"prompt": "x", "scheduler": "LMS"}},
		{"controlnet without image", "controlnet/canny", map[string]any{"prompt": "x"}},
		{"temperature out of range", "llama/chat", map[string]any{"prompt": "x", "temperature": 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Apply(tt.key, tt.params)
			var paramErr *ParameterError
			require.ErrorAs(t, err, &paramErr)
			assert.Equal(t, tt.key, paramErr.Template)
		})
	}
}

func TestApplyUnknownTemplate(t *testing.T) {
	_, err := builtinRegistry(t).Apply("sd/nope", map[string]any{"prompt": "x"})
	assert.True(t, errors.Is(err, ErrUnknownTemplate))
}

func TestListByFamily(t *testing.T) {
	r := builtinRegistry(t)

	sd := r.List("sd")
	require.Len(t, sd, 2)
	assert.Equal(t, "sd/sd15", sd[0].Key)
	assert.Equal(t, "sd/sdxl", sd[1].Key)

	assert.Len(t, r.List("llama"), 2)
	assert.Len(t, r.List("controlnet"), 4)
	assert.Empty(t, r.List("whisper"))
	assert.Len(t, r.List(""), 8)
}

func TestSummary(t *testing.T) {
	tmpl, ok := builtinRegistry(t).Get("controlnet/depth")
	require.True(t, ok)

	s := tmpl.Summary()
	assert.Equal(t, "controlnet-depth", s.ID)
	assert.Equal(t, "depth", s.ControlType)
	assert.Equal(t, "controlnet", tmpl.Family())
}

func TestNewRegistryRejectsBadTemplates(t *testing.T) {
	schema := &jsonschema.Schema{Type: "object"}
	tests := []struct {
		name string
		tmpl *Template
	}{
		{"nil", nil},
		{"empty key", &Template{ParameterSchema: schema}},
		{"key without family", &Template{Key: "sdxl", ParameterSchema: schema}},
		{"missing schema", &Template{Key: "sd/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.tmpl)
			assert.Error(t, err)
		})
	}
}
