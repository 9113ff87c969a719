package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", maskToken("r8_x"))
	assert.Equal(t, "*****cdef", maskToken("r8_abcdef"))
	assert.Equal(t, "", maskToken(""))
}

func TestTemplatesList(t *testing.T) {
	out, err := execute(t, "templates", "list", "--family", "controlnet")
	require.NoError(t, err)
	assert.Contains(t, out, "controlnet/canny")
	assert.Contains(t, out, "controlnet/segmentation")
	assert.NotContains(t, out, "sd/sdxl")
}

func TestTemplatesShowAndApply(t *testing.T) {
	out, err := execute(t, "templates", "show", "llama/chat", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: llama-chat")

	out, err = execute(t, "templates", "apply", "sd/sd15", "--params", `{"prompt":"a cat","width":640}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"width": 640`)
	assert.Contains(t, out, `"height": 512`)

	_, err = execute(t, "templates", "apply", "sd/sd15", "--params", `{"width":640}`)
	assert.Error(t, err)

	_, err = execute(t, "templates", "show", "sd/none")
	assert.Error(t, err)
}

func TestTemplatesLint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - key: whisper/base
    id: whisper-base
    parameter_schema:
      type: object
      properties:
        audio: {type: string}
`), 0o600))

	out, err := execute(t, "templates", "lint", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 templates OK")

	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - key: nofamily\n    parameter_schema: {type: object}\n"), 0o600))
	_, err = execute(t, "templates", "lint", path)
	assert.Error(t, err)
}

func TestConfigCheckRequiresToken(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "")
	_, err := execute(t, "config", "check")
	assert.ErrorContains(t, err, "REPLICATE_API_TOKEN")

	t.Setenv("REPLICATE_API_TOKEN", "r8_secret1234")
	t.Setenv("REPLICATE_MCP_TRANSPORT", "stdio")
	out, err := execute(t, "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "*********1234")
	assert.NotContains(t, out, "r8_secret1234")
}
