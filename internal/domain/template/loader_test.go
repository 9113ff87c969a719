package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customTemplates = `
templates:
  - key: sd/sdxl
    id: sdxl-house
    name: House SDXL
    description: SDXL with house defaults
    model_type: stable-diffusion
    default_parameters:
      width: 768
      height: 768
    parameter_schema:
      type: object
      required: [prompt]
      properties:
        prompt: {type: string}
        width: {type: integer, minimum: 256, maximum: 1024}
        height: {type: integer, minimum: 256, maximum: 1024}
  - key: whisper/base
    id: whisper-base
    name: Whisper
    model_type: whisper
    default_parameters:
      language: ${TEMPLATE_TEST_LANGUAGE}
    parameter_schema:
      type: object
      required: [audio]
      properties:
        audio: {type: string}
        language: {type: string}
`

func TestParse(t *testing.T) {
	templates, err := Parse([]byte(customTemplates))
	require.NoError(t, err)
	require.Len(t, templates, 2)

	assert.Equal(t, "sd/sdxl", templates[0].Key)
	assert.Equal(t, "1.0.0", templates[0].Version)
	assert.Equal(t, []string{"prompt"}, templates[0].ParameterSchema.Required)
	assert.Equal(t, 768, templates[0].DefaultParameters["width"])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("templates: [oops"))
	assert.Error(t, err)

	_, err = Parse([]byte("templates:\n  - key: sd/x\n"))
	assert.ErrorContains(t, err, "parameter_schema is required")
}

func TestNewRegistryFromFileOverridesBuiltin(t *testing.T) {
	t.Setenv("TEMPLATE_TEST_LANGUAGE", "en")
	path := filepath.Join(t.TempDir(), "templates.yml")
	require.NoError(t, os.WriteFile(path, []byte(customTemplates), 0o600))

	r, err := NewRegistryFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9, r.Len())

	sdxl, ok := r.Get("sd/sdxl")
	require.True(t, ok)
	assert.Equal(t, "sdxl-house", sdxl.ID)

	merged, err := r.Apply("sd/sdxl", map[string]any{"prompt": "x"})
	require.NoError(t, err)
	assert.Equal(t, 768, merged["width"])

	whisper, ok := r.Get("whisper/base")
	require.True(t, ok)
	assert.Equal(t, "en", whisper.DefaultParameters["language"])
	assert.Error(t, r.Validate("whisper/base", map[string]any{}))
}

func TestNewRegistryFromFileBuiltinsOnly(t *testing.T) {
	r, err := NewRegistryFromFile("")
	require.NoError(t, err)
	assert.Equal(t, 8, r.Len())

	_, err = NewRegistryFromFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestExampleTemplatesFile(t *testing.T) {
	r, err := NewRegistryFromFile(filepath.Join("..", "..", "..", "configs", "templates.example.yml"))
	require.NoError(t, err)

	merged, err := r.Apply("sd/sdxl-lightning", map[string]any{"prompt": "a fox"})
	require.NoError(t, err)
	assert.Equal(t, 4, merged["num_inference_steps"])
}
