package replicate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/janhq/replicate-mcp/internal/domain/template"
	"github.com/janhq/replicate-mcp/internal/utils/platformerrors"
)

const maxListLimit = 100

// ServiceConfig carries tunables for ReplicateService.
type ServiceConfig struct {
	// DefaultLimit caps list_models and search_models when the caller gives no limit.
	DefaultLimit int
}

// ReplicateService validates tool arguments, forwards them upstream and
// trims the replies to the allowlisted fields.
type ReplicateService struct {
	client       Client
	templates    *template.Registry
	defaultLimit int
}

// NewReplicateService creates a new Replicate service.
func NewReplicateService(client Client, templates *template.Registry, cfg ServiceConfig) *ReplicateService {
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = 5
	}
	return &ReplicateService{
		client:       client,
		templates:    templates,
		defaultLimit: limit,
	}
}

// ListModels returns public models, optionally restricted to one owner.
// The owner filter applies to the fetched page only.
func (s *ReplicateService) ListModels(ctx context.Context, req ListModelsRequest) (*ModelList, error) {
	cursor, err := normalizeCursor(ctx, req.Cursor)
	if err != nil {
		return nil, err
	}
	limit, err := s.resolveLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	owner := strings.TrimSpace(req.Owner)
	if owner != "" && !validSegment(owner) {
		return nil, invalidInput(ctx, "owner must be a single path segment", "f3a7c6de-8e4b-4a09-9f43-8c1b1f0e6d21")
	}

	page, err := s.client.ListModels(ctx, cursor)
	if err != nil {
		return nil, err
	}

	results := page.Results
	if owner != "" {
		matched := make([]Object, 0, len(results))
		for _, m := range results {
			if o, _ := m["owner"].(string); o == owner {
				matched = append(matched, m)
			}
		}
		results = matched
	}
	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}

	return &ModelList{
		Models:     FilterAll(KindModelSummary, results),
		NextCursor: cursorPtr(page.Next),
		PrevCursor: cursorPtr(page.Previous),
		Total:      total,
	}, nil
}

// SearchModels runs a free-text model search.
func (s *ReplicateService) SearchModels(ctx context.Context, req SearchModelsRequest) (*ModelList, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, invalidInput(ctx, "query is required", "0b9e2c55-64a3-4d3f-b2de-67f8b9a0c4e1")
	}
	cursor, err := normalizeCursor(ctx, req.Cursor)
	if err != nil {
		return nil, err
	}
	limit, err := s.resolveLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	page, err := s.client.SearchModels(ctx, query, cursor)
	if err != nil {
		return nil, err
	}

	results := page.Results
	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return &ModelList{
		Models:     FilterAll(KindModelSummary, results),
		NextCursor: cursorPtr(page.Next),
		PrevCursor: cursorPtr(page.Previous),
		Total:      total,
	}, nil
}

// GetModelDetails fetches one model by "owner/name".
func (s *ReplicateService) GetModelDetails(ctx context.Context, model string) (Object, error) {
	ref, err := parseModelRef(ctx, model, false)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetModel(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, err
	}
	return Filter(KindModel, obj), nil
}

// GetModelVersions lists the versions of a model, newest first as upstream orders them.
func (s *ReplicateService) GetModelVersions(ctx context.Context, model, cursor string) (*VersionList, error) {
	ref, err := parseModelRef(ctx, model, false)
	if err != nil {
		return nil, err
	}
	cursor, err = normalizeCursor(ctx, cursor)
	if err != nil {
		return nil, err
	}
	page, err := s.client.ListModelVersions(ctx, ref.Owner, ref.Name, cursor)
	if err != nil {
		return nil, err
	}
	return &VersionList{
		Model:      ref.String(),
		Versions:   FilterAll(KindVersion, page.Results),
		NextCursor: cursorPtr(page.Next),
	}, nil
}

// CreatePrediction starts a prediction. Either Version or Model must be set;
// "owner/name:version" in Model pins the version. When Template is set its
// defaults are merged under Input and the result is schema-checked.
func (s *ReplicateService) CreatePrediction(ctx context.Context, in CreatePredictionInput) (Object, error) {
	if in.Input == nil {
		return nil, invalidInput(ctx, "input is required", "2d6f1b8c-3e57-4c8a-a1f0-5b7d9e2c4a63")
	}

	req := CreatePredictionRequest{
		Version: strings.TrimSpace(in.Version),
		Input:   in.Input,
	}

	if model := strings.TrimSpace(in.Model); model != "" {
		ref, err := parseModelRef(ctx, model, true)
		if err != nil {
			return nil, err
		}
		if ref.Version != "" {
			if req.Version != "" && req.Version != ref.Version {
				return nil, invalidInput(ctx, "model version conflicts with version argument", "8c41e5a2-7b0d-4f6e-93c1-2a5d8f7e0b94")
			}
			req.Version = ref.Version
		}
		if req.Version == "" {
			req.Model = &ref
		}
	}
	if req.Version == "" && req.Model == nil {
		return nil, invalidInput(ctx, "either version or model is required", "5e0a7d3b-91c4-4b2f-8d6e-3f1c9a7b2e58")
	}
	if req.Version != "" && !validSegment(req.Version) {
		return nil, invalidInput(ctx, "version must be a single path segment", "c7b2e904-5d1a-4e3f-8b6c-0a9d2f4e7c15")
	}

	if in.Template != "" {
		merged, err := s.templates.Apply(in.Template, in.Input)
		if err != nil {
			return nil, templateError(ctx, in.Template, err)
		}
		req.Input = merged
	}

	if in.Webhook != "" {
		if err := validateWebhook(ctx, in.Webhook); err != nil {
			return nil, err
		}
		req.Webhook = in.Webhook
	}
	if len(in.WebhookEventsFilter) > 0 {
		if in.Webhook == "" {
			return nil, invalidInput(ctx, "webhook_events_filter requires webhook", "e1d4a8f6-0c3b-4d72-a95e-6b2f7c8d1a30")
		}
		for _, ev := range in.WebhookEventsFilter {
			if !webhookEvents[ev] {
				return nil, invalidInput(ctx, "unknown webhook event: "+ev, "47f9c2b1-d8e6-4a05-b3c7-9e1a5d0f6b82")
			}
		}
		req.WebhookEventsFilter = in.WebhookEventsFilter
	}

	obj, err := s.client.CreatePrediction(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.prediction(ctx, obj)
}

// GetPrediction polls a prediction once.
func (s *ReplicateService) GetPrediction(ctx context.Context, id string) (Object, error) {
	id, err := validateID(ctx, "prediction_id", id)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetPrediction(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.prediction(ctx, obj)
	if err != nil {
		return nil, err
	}
	status, _ := p["status"].(string)
	log.Debug().Str("prediction_id", id).Str("status", status).Bool("terminal", PredictionStatus(status).Terminal()).Msg("polled prediction")
	return p, nil
}

// CancelPrediction asks upstream to cancel a prediction.
func (s *ReplicateService) CancelPrediction(ctx context.Context, id string) (Object, error) {
	id, err := validateID(ctx, "prediction_id", id)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.CancelPrediction(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.prediction(ctx, obj)
}

// ListPredictions lists the caller's predictions.
func (s *ReplicateService) ListPredictions(ctx context.Context, cursor string) (*PredictionList, error) {
	cursor, err := normalizeCursor(ctx, cursor)
	if err != nil {
		return nil, err
	}
	page, err := s.client.ListPredictions(ctx, cursor)
	if err != nil {
		return nil, err
	}
	predictions := make([]Object, 0, len(page.Results))
	for _, obj := range page.Results {
		status, _ := obj["status"].(string)
		if !PredictionStatus(status).Valid() {
			log.Warn().Str("status", status).Interface("prediction_id", obj["id"]).Msg("dropping prediction with unrecognized status from list")
			continue
		}
		predictions = append(predictions, Filter(KindPrediction, obj))
	}
	return &PredictionList{
		Predictions: predictions,
		NextCursor:  cursorPtr(page.Next),
	}, nil
}

// ListCollections lists curated model collections.
func (s *ReplicateService) ListCollections(ctx context.Context, cursor string) (*CollectionList, error) {
	cursor, err := normalizeCursor(ctx, cursor)
	if err != nil {
		return nil, err
	}
	page, err := s.client.ListCollections(ctx, cursor)
	if err != nil {
		return nil, err
	}
	return &CollectionList{
		Collections: FilterAll(KindCollection, page.Results),
		NextCursor:  cursorPtr(page.Next),
	}, nil
}

// GetCollectionDetails fetches one collection including its models.
func (s *ReplicateService) GetCollectionDetails(ctx context.Context, slug string) (Object, error) {
	slug, err := validateID(ctx, "collection_slug", slug)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetCollection(ctx, slug)
	if err != nil {
		return nil, err
	}
	return Filter(KindCollection, obj), nil
}

// ListHardware lists the hardware SKUs predictions can run on.
func (s *ReplicateService) ListHardware(ctx context.Context) (*HardwareList, error) {
	items, err := s.client.ListHardware(ctx)
	if err != nil {
		return nil, err
	}
	return &HardwareList{Hardware: FilterAll(KindHardware, items)}, nil
}

// ListTemplates returns template summaries, optionally for one family.
func (s *ReplicateService) ListTemplates(family string) []template.Summary {
	templates := s.templates.List(strings.TrimSpace(family))
	out := make([]template.Summary, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.Summary())
	}
	return out
}

// GetTemplate returns the full template registered under key.
func (s *ReplicateService) GetTemplate(ctx context.Context, key string) (*template.Template, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, invalidInput(ctx, "template_id is required", "9a2c5e7f-1b3d-4f60-8e4a-c6d0b2f9a713")
	}
	t, ok := s.templates.Get(key)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"template not found: "+key, nil, "b58e1f3a-6c92-4d07-a4b1-7e3f0c9d5a26")
	}
	return t, nil
}

func (s *ReplicateService) prediction(ctx context.Context, obj Object) (Object, error) {
	status, _ := obj["status"].(string)
	if !PredictionStatus(status).Valid() {
		log.Warn().Str("status", status).Interface("prediction_id", obj["id"]).Msg("unrecognized prediction status from upstream")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
			fmt.Sprintf("unrecognized prediction status %q", status), nil, "d3f6a0b9-2e85-4c1d-b7f4-1a8e6c3d9b50")
	}
	return Filter(KindPrediction, obj), nil
}

func (s *ReplicateService) resolveLimit(ctx context.Context, limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, invalidInput(ctx, "limit must not be negative", "6f1d8b4e-a7c3-4e92-9d05-3b8c2a1f7e64")
	case limit == 0:
		return s.defaultLimit, nil
	case limit > maxListLimit:
		return 0, invalidInput(ctx, fmt.Sprintf("limit must be at most %d", maxListLimit), "a4e7c1d9-3f60-4b8a-82e5-d9b1f6c0a347")
	}
	return limit, nil
}

var webhookEvents = map[string]bool{
	"start":     true,
	"output":    true,
	"logs":      true,
	"completed": true,
}

func invalidInput(ctx context.Context, message, errUUID string) *platformerrors.PlatformError {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, message, nil, errUUID)
}

func templateError(ctx context.Context, key string, err error) *platformerrors.PlatformError {
	if errors.Is(err, template.ErrUnknownTemplate) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"unknown template: "+key, err, "1c7a9e3f-5b2d-4f81-a06c-8e4d2b9f3a17")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		err.Error(), err, "7e3b0d5a-c9f1-4a26-b8e4-2d6f1a9c5e03")
}

// parseModelRef splits "owner/name" and, when allowVersion is set,
// "owner/name:version".
func parseModelRef(ctx context.Context, model string, allowVersion bool) (ModelRef, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return ModelRef{}, invalidInput(ctx, "model is required", "4b8d2f6a-0e3c-4a71-9f5d-c2a7e1b3d846")
	}
	var ref ModelRef
	if allowVersion {
		if base, version, ok := strings.Cut(model, ":"); ok {
			if version == "" {
				return ModelRef{}, invalidInput(ctx, "model version after ':' must not be empty", "f0c6e2a8-4d1b-4e93-a7c5-6b3f9d0e2a71")
			}
			model, ref.Version = base, version
		}
	}
	owner, name, ok := strings.Cut(model, "/")
	if !ok || !validSegment(owner) || !validSegment(name) {
		return ModelRef{}, invalidInput(ctx, "model must be in owner/name form", "8d5a1c3e-7f2b-4b60-9e84-a1c6f3d0b529")
	}
	ref.Owner, ref.Name = owner, name
	return ref, nil
}

func validateID(ctx context.Context, field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidInput(ctx, field+" is required", "3e9f7b1d-2c6a-4d58-b0e3-5f8a4c1d7e92")
	}
	if !validSegment(id) {
		return "", invalidInput(ctx, field+" must not contain '/' or whitespace", "b1a4d8e2-6f3c-4907-8d5b-e2c7f0a9b364")
	}
	return id, nil
}

func validateWebhook(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return invalidInput(ctx, "webhook must be an absolute http(s) URL", "c5e0a3f7-9b2d-4e16-a8c4-7d1f3b6e0a95")
	}
	return nil
}

func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, r := range s {
		if r == '/' || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// normalizeCursor accepts a bare cursor token or a full next/previous URL.
func normalizeCursor(ctx context.Context, cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	if strings.IndexFunc(cursor, unicode.IsSpace) >= 0 {
		return "", invalidInput(ctx, "cursor must not contain whitespace", "0e7c4a2b-d5f9-4b38-91a6-f3e8b2c5d704")
	}
	if !strings.Contains(cursor, "://") {
		return cursor, nil
	}
	token := cursorFromURL(cursor)
	if token == "" {
		return "", invalidInput(ctx, "cursor URL has no cursor parameter", "6a3d9f1e-b4c7-4e05-a2f8-9c1b5e7d3a60")
	}
	return token, nil
}

// cursorFromURL extracts the "cursor" query parameter from an upstream
// pagination URL. Non-URL input is returned unchanged.
func cursorFromURL(next string) string {
	if next == "" {
		return ""
	}
	if !strings.Contains(next, "://") {
		return next
	}
	u, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return u.Query().Get("cursor")
}

func cursorPtr(next string) *string {
	c := cursorFromURL(next)
	if c == "" {
		return nil
	}
	return &c
}
