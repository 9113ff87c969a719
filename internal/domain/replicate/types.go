package replicate

import "context"

// Object is a decoded upstream JSON object. Numbers are kept as json.Number.
type Object = map[string]any

// Page is one page of an upstream paginated listing.
type Page struct {
	Results  []Object
	Next     string // raw "next" URL or cursor as returned upstream
	Previous string
}

// PredictionStatus is the lifecycle state of a prediction as reported upstream.
type PredictionStatus string

const (
	StatusStarting   PredictionStatus = "starting"
	StatusProcessing PredictionStatus = "processing"
	StatusSucceeded  PredictionStatus = "succeeded"
	StatusFailed     PredictionStatus = "failed"
	StatusCanceled   PredictionStatus = "canceled"
)

// Valid reports whether s is one of the known statuses.
func (s PredictionStatus) Valid() bool {
	switch s {
	case StatusStarting, StatusProcessing, StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are expected.
func (s PredictionStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// ModelRef identifies a model as owner/name, optionally pinned to a version.
type ModelRef struct {
	Owner   string
	Name    string
	Version string
}

func (m ModelRef) String() string {
	if m.Version != "" {
		return m.Owner + "/" + m.Name + ":" + m.Version
	}
	return m.Owner + "/" + m.Name
}

// CreatePredictionRequest is the upstream body for prediction creation.
// Model is used only when Version is empty (official-model endpoint).
type CreatePredictionRequest struct {
	Model               *ModelRef      `json:"-"`
	Version             string         `json:"version,omitempty"`
	Input               map[string]any `json:"input"`
	Webhook             string         `json:"webhook,omitempty"`
	WebhookEventsFilter []string       `json:"webhook_events_filter,omitempty"`
}

// Client is the upstream Replicate API surface used by the service.
type Client interface {
	ListModels(ctx context.Context, cursor string) (*Page, error)
	SearchModels(ctx context.Context, query, cursor string) (*Page, error)
	GetModel(ctx context.Context, owner, name string) (Object, error)
	ListModelVersions(ctx context.Context, owner, name, cursor string) (*Page, error)
	CreatePrediction(ctx context.Context, req CreatePredictionRequest) (Object, error)
	GetPrediction(ctx context.Context, id string) (Object, error)
	CancelPrediction(ctx context.Context, id string) (Object, error)
	ListPredictions(ctx context.Context, cursor string) (*Page, error)
	ListCollections(ctx context.Context, cursor string) (*Page, error)
	GetCollection(ctx context.Context, slug string) (Object, error)
	ListHardware(ctx context.Context) ([]Object, error)
}

// ListModelsRequest filters and paginates list_models.
type ListModelsRequest struct {
	Owner  string
	Cursor string
	Limit  int
}

// SearchModelsRequest is the input of search_models.
type SearchModelsRequest struct {
	Query  string
	Cursor string
	Limit  int
}

// CreatePredictionInput is the caller-facing input of create_prediction.
type CreatePredictionInput struct {
	Model               string
	Version             string
	Template            string
	Input               map[string]any
	Webhook             string
	WebhookEventsFilter []string
}

// ModelList is the shaped result of list_models and search_models.
type ModelList struct {
	Models     []Object `json:"models"`
	NextCursor *string  `json:"next_cursor"`
	PrevCursor *string  `json:"previous_cursor,omitempty"`
	Total      int      `json:"total_models"`
}

// VersionList is the shaped result of get_model_versions.
type VersionList struct {
	Model      string   `json:"model"`
	Versions   []Object `json:"versions"`
	NextCursor *string  `json:"next_cursor"`
}

// PredictionList is the shaped result of list_predictions.
type PredictionList struct {
	Predictions []Object `json:"predictions"`
	NextCursor  *string  `json:"next_cursor"`
}

// CollectionList is the shaped result of list_collections.
type CollectionList struct {
	Collections []Object `json:"collections"`
	NextCursor  *string  `json:"next_cursor"`
}

// HardwareList is the shaped result of list_hardware.
type HardwareList struct {
	Hardware []Object `json:"hardware"`
}
