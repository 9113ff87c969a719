package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	domainreplicate "github.com/janhq/replicate-mcp/internal/domain/replicate"
)

const templateURIPrefix = "template://"

// ListTemplatesArgs defines the arguments for the list_templates tool
type ListTemplatesArgs struct {
	Family string `json:"family,omitempty" jsonschema:"Restrict to one family such as sd, llama or controlnet"`
}

// GetTemplateArgs defines the arguments for the get_template tool
type GetTemplateArgs struct {
	TemplateID string `json:"template_id,omitempty" jsonschema:"Template id in family/variant form such as sd/sdxl (required)"`
}

// TemplateMCP exposes parameter templates as tools and resources.
type TemplateMCP struct {
	service *domainreplicate.ReplicateService
}

// NewTemplateMCP creates a new template MCP handler.
func NewTemplateMCP(service *domainreplicate.ReplicateService) *TemplateMCP {
	return &TemplateMCP{service: service}
}

// RegisterTools registers the template tools with the MCP server.
func (t *TemplateMCP) RegisterTools(server *mcp.Server) {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_templates",
		Description: "List parameter templates with defaults for well-known model families.",
		Annotations: readOnly,
	}, handleTool("list_templates", func(_ context.Context, in ListTemplatesArgs) (any, error) {
		return map[string]any{"templates": t.service.ListTemplates(in.Family)}, nil
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_template",
		Description: "Get a parameter template including its default parameters and JSON schema.",
		Annotations: readOnly,
	}, handleTool("get_template", func(ctx context.Context, in GetTemplateArgs) (any, error) {
		return t.service.GetTemplate(ctx, in.TemplateID)
	}))
}

// RegisterResources publishes every template as template://{family}/{variant}.
func (t *TemplateMCP) RegisterResources(server *mcp.Server) {
	for _, summary := range t.service.ListTemplates("") {
		server.AddResource(&mcp.Resource{
			URI:         templateURIPrefix + summary.Key,
			Name:        summary.Key,
			Title:       summary.Name,
			Description: summary.Description,
			MIMEType:    "application/json",
		}, t.readTemplate)
	}

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: templateURIPrefix + "{family}/{variant}",
		Name:        "parameter-template",
		Description: "Parameter template for a model family variant",
		MIMEType:    "application/json",
	}, t.readTemplate)
}

func (t *TemplateMCP) readTemplate(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	key := strings.TrimPrefix(uri, templateURIPrefix)
	tmpl, err := t.service.GetTemplate(ctx, key)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	data, err := json.Marshal(tmpl)
	if err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("failed to marshal template resource")
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
