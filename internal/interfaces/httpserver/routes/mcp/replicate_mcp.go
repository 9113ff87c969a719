package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	domainreplicate "github.com/janhq/replicate-mcp/internal/domain/replicate"
)

// ListModelsArgs defines the arguments for the list_models tool
type ListModelsArgs struct {
	Owner  string `json:"owner,omitempty" jsonschema:"Only return models owned by this user or organization"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Pagination cursor or next URL from a previous call"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of models to return (default 5, max 100)"`
}

// SearchModelsArgs defines the arguments for the search_models tool
type SearchModelsArgs struct {
	Query  string `json:"query,omitempty" jsonschema:"Free-text search query (required)"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Pagination cursor or next URL from a previous call"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of models to return (default 5, max 100)"`
}

// ModelArgs identifies one model.
type ModelArgs struct {
	Model string `json:"model,omitempty" jsonschema:"Model identifier in owner/name form (required)"`
}

// ModelVersionsArgs defines the arguments for the get_model_versions tool
type ModelVersionsArgs struct {
	Model  string `json:"model,omitempty" jsonschema:"Model identifier in owner/name form (required)"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Pagination cursor or next URL from a previous call"`
}

// CreatePredictionArgs defines the arguments for the create_prediction tool
type CreatePredictionArgs struct {
	Input               map[string]any `json:"input,omitempty" jsonschema:"Model input parameters (required)"`
	Version             string         `json:"version,omitempty" jsonschema:"Model version id to run"`
	Model               string         `json:"model,omitempty" jsonschema:"Model in owner/name or owner/name:version form; used when version is not given"`
	Template            string         `json:"template,omitempty" jsonschema:"Parameter template id such as sd/sdxl whose defaults are merged under input"`
	Webhook             string         `json:"webhook,omitempty" jsonschema:"HTTPS URL notified as the prediction progresses"`
	WebhookEventsFilter []string       `json:"webhook_events_filter,omitempty" jsonschema:"Webhook events to send: start, output, logs, completed"`
}

// PredictionArgs identifies one prediction.
type PredictionArgs struct {
	PredictionID string `json:"prediction_id,omitempty" jsonschema:"Prediction id (required)"`
}

// CursorArgs carries only a pagination cursor.
type CursorArgs struct {
	Cursor string `json:"cursor,omitempty" jsonschema:"Pagination cursor or next URL from a previous call"`
}

// CollectionArgs identifies one collection.
type CollectionArgs struct {
	CollectionSlug string `json:"collection_slug,omitempty" jsonschema:"Collection slug such as text-to-image (required)"`
}

// NoArgs is the input of tools without parameters.
type NoArgs struct{}

// ReplicateMCP registers the Replicate API tools.
type ReplicateMCP struct {
	service *domainreplicate.ReplicateService
}

// NewReplicateMCP creates a new Replicate MCP handler.
func NewReplicateMCP(service *domainreplicate.ReplicateService) *ReplicateMCP {
	return &ReplicateMCP{service: service}
}

// RegisterTools registers the Replicate tools with the MCP server.
func (r *ReplicateMCP) RegisterTools(server *mcp.Server) {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_models",
		Description: "List public Replicate models, optionally filtered by owner.",
		Annotations: readOnly,
	}, handleTool("list_models", func(ctx context.Context, in ListModelsArgs) (any, error) {
		return r.service.ListModels(ctx, domainreplicate.ListModelsRequest{
			Owner:  in.Owner,
			Cursor: in.Cursor,
			Limit:  in.Limit,
		})
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_models",
		Description: "Search Replicate models by free-text query.",
		Annotations: readOnly,
	}, handleTool("search_models", func(ctx context.Context, in SearchModelsArgs) (any, error) {
		return r.service.SearchModels(ctx, domainreplicate.SearchModelsRequest{
			Query:  in.Query,
			Cursor: in.Cursor,
			Limit:  in.Limit,
		})
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_model_details",
		Description: "Get details of a Replicate model, including its latest version.",
		Annotations: readOnly,
	}, handleTool("get_model_details", func(ctx context.Context, in ModelArgs) (any, error) {
		return r.service.GetModelDetails(ctx, in.Model)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_model_versions",
		Description: "List the versions of a Replicate model with their input/output schemas.",
		Annotations: readOnly,
	}, handleTool("get_model_versions", func(ctx context.Context, in ModelVersionsArgs) (any, error) {
		return r.service.GetModelVersions(ctx, in.Model, in.Cursor)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_prediction",
		Description: "Start a prediction on a model version or official model. Returns immediately; poll with get_prediction.",
	}, handleTool("create_prediction", func(ctx context.Context, in CreatePredictionArgs) (any, error) {
		return r.service.CreatePrediction(ctx, domainreplicate.CreatePredictionInput{
			Model:               in.Model,
			Version:             in.Version,
			Template:            in.Template,
			Input:               in.Input,
			Webhook:             in.Webhook,
			WebhookEventsFilter: in.WebhookEventsFilter,
		})
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_prediction",
		Description: "Get the current status and output of a prediction.",
		Annotations: readOnly,
	}, handleTool("get_prediction", func(ctx context.Context, in PredictionArgs) (any, error) {
		return r.service.GetPrediction(ctx, in.PredictionID)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_prediction",
		Description: "Cancel a running prediction.",
	}, handleTool("cancel_prediction", func(ctx context.Context, in PredictionArgs) (any, error) {
		return r.service.CancelPrediction(ctx, in.PredictionID)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_predictions",
		Description: "List recent predictions for the configured account.",
		Annotations: readOnly,
	}, handleTool("list_predictions", func(ctx context.Context, in CursorArgs) (any, error) {
		return r.service.ListPredictions(ctx, in.Cursor)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List curated Replicate model collections.",
		Annotations: readOnly,
	}, handleTool("list_collections", func(ctx context.Context, in CursorArgs) (any, error) {
		return r.service.ListCollections(ctx, in.Cursor)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_collection_details",
		Description: "Get a collection and the models it contains.",
		Annotations: readOnly,
	}, handleTool("get_collection_details", func(ctx context.Context, in CollectionArgs) (any, error) {
		return r.service.GetCollectionDetails(ctx, in.CollectionSlug)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_hardware",
		Description: "List hardware SKUs available for running models.",
		Annotations: readOnly,
	}, handleTool("list_hardware", func(ctx context.Context, _ NoArgs) (any, error) {
		return r.service.ListHardware(ctx)
	}))
}
