package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrUnknownTemplate is returned when a template key is not registered.
var ErrUnknownTemplate = errors.New("unknown template")

// ParameterError reports parameters that do not satisfy a template schema.
type ParameterError struct {
	Template string
	Err      error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameters for template %s: %v", e.Template, e.Err)
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

// Template is a named set of default parameters plus the JSON schema
// callers' parameters must satisfy for one model family.
type Template struct {
	Key               string             `json:"key"`
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	ModelType         string             `json:"model_type"`
	ControlType       string             `json:"control_type,omitempty"`
	DefaultParameters map[string]any     `json:"default_parameters"`
	ParameterSchema   *jsonschema.Schema `json:"parameter_schema"`
	Version           string             `json:"version"`

	resolved *jsonschema.Resolved
}

// Family returns the part of the key before the slash ("sd" for "sd/sdxl").
func (t *Template) Family() string {
	family, _, _ := strings.Cut(t.Key, "/")
	return family
}

// Summary is the listing view of a template.
type Summary struct {
	Key         string `json:"key"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ModelType   string `json:"model_type"`
	ControlType string `json:"control_type,omitempty"`
	Version     string `json:"version"`
}

func (t *Template) Summary() Summary {
	return Summary{
		Key:         t.Key,
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		ModelType:   t.ModelType,
		ControlType: t.ControlType,
		Version:     t.Version,
	}
}

func (t *Template) resolve() error {
	if strings.TrimSpace(t.Key) == "" {
		return errors.New("template key is required")
	}
	if !strings.Contains(t.Key, "/") {
		return fmt.Errorf("template key %q must be family/variant", t.Key)
	}
	if t.ParameterSchema == nil {
		return fmt.Errorf("template %s has no parameter schema", t.Key)
	}
	resolved, err := t.ParameterSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve schema for template %s: %w", t.Key, err)
	}
	t.resolved = resolved
	return nil
}

// Registry holds the templates known to the process. It is populated at
// startup and read-only afterwards.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry builds a registry from the given templates. Later entries
// replace earlier ones with the same key.
func NewRegistry(templates ...*Template) (*Registry, error) {
	r := &Registry{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t *Template) error {
	if t == nil {
		return errors.New("nil template")
	}
	if err := t.resolve(); err != nil {
		return err
	}
	r.templates[t.Key] = t
	return nil
}

// Get returns the template registered under key.
func (r *Registry) Get(key string) (*Template, bool) {
	t, ok := r.templates[key]
	return t, ok
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	return len(r.templates)
}

// List returns templates sorted by key, optionally restricted to one family.
func (r *Registry) List(family string) []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		if family != "" && t.Family() != family {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Validate checks params against the schema of the template under key.
func (r *Registry) Validate(key string, params map[string]any) error {
	t, ok := r.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, key)
	}
	instance, err := toJSONValue(params)
	if err != nil {
		return &ParameterError{Template: key, Err: err}
	}
	if err := t.resolved.Validate(instance); err != nil {
		return &ParameterError{Template: key, Err: err}
	}
	return nil
}

// Apply overlays params on the template defaults and validates the result.
// Caller values win over defaults. params is not modified.
func (r *Registry) Apply(key string, params map[string]any) (map[string]any, error) {
	t, ok := r.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, key)
	}
	merged := make(map[string]any, len(t.DefaultParameters)+len(params))
	maps.Copy(merged, t.DefaultParameters)
	maps.Copy(merged, params)
	if err := r.Validate(key, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// toJSONValue converts Go values into their generic JSON form so that
// integers declared in Go literals validate the same as decoded numbers.
func toJSONValue(v map[string]any) (any, error) {
	if v == nil {
		v = map[string]any{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
