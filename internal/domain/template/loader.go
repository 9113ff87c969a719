package template

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// fileTemplate is the YAML representation of a template.
type fileTemplate struct {
	Key               string         `yaml:"key"`
	ID                string         `yaml:"id"`
	Name              string         `yaml:"name"`
	Description       string         `yaml:"description"`
	ModelType         string         `yaml:"model_type"`
	ControlType       string         `yaml:"control_type"`
	DefaultParameters map[string]any `yaml:"default_parameters"`
	ParameterSchema   map[string]any `yaml:"parameter_schema"`
	Version           string         `yaml:"version"`
}

type fileConfig struct {
	Templates []fileTemplate `yaml:"templates"`
}

// LoadFile reads templates from a YAML file of the form
//
//	templates:
//	  - key: sd/custom
//	    parameter_schema: {...}
//
// Environment variables in the file are expanded before parsing.
func LoadFile(path string) ([]*Template, error) {
	data, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return nil, err
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes templates from YAML bytes.
func Parse(data []byte) ([]*Template, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	out := make([]*Template, 0, len(cfg.Templates))
	for i, ft := range cfg.Templates {
		schema, err := schemaFromMap(ft.ParameterSchema)
		if err != nil {
			return nil, fmt.Errorf("template %d (%s): %w", i, ft.Key, err)
		}
		version := ft.Version
		if version == "" {
			version = "1.0.0"
		}
		out = append(out, &Template{
			Key:               ft.Key,
			ID:                ft.ID,
			Name:              ft.Name,
			Description:       ft.Description,
			ModelType:         ft.ModelType,
			ControlType:       ft.ControlType,
			DefaultParameters: ft.DefaultParameters,
			ParameterSchema:   schema,
			Version:           version,
		})
	}
	return out, nil
}

func schemaFromMap(raw map[string]any) (*jsonschema.Schema, error) {
	if raw == nil {
		return nil, fmt.Errorf("parameter_schema is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode parameter_schema: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decode parameter_schema: %w", err)
	}
	return &schema, nil
}

// NewRegistryFromFile returns the built-in templates overlaid with those in
// path. An empty path yields the built-ins only.
func NewRegistryFromFile(path string) (*Registry, error) {
	templates := Builtin()
	if path != "" {
		extra, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		templates = append(templates, extra...)
	}
	return NewRegistry(templates...)
}
