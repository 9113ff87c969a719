package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	domainreplicate "github.com/janhq/replicate-mcp/internal/domain/replicate"
	"github.com/janhq/replicate-mcp/internal/infrastructure/metrics"
	"github.com/janhq/replicate-mcp/internal/infrastructure/observability"
	"github.com/janhq/replicate-mcp/internal/utils/platformerrors"
)

const (
	DefaultBaseURL = "https://api.replicate.com/v1"

	// methodQuery is the HTTP QUERY method used by model search.
	methodQuery = "QUERY"

	maxDetailLen = 200
)

// ClientConfig captures the knobs exposed to operators for the Replicate client.
type ClientConfig struct {
	APIToken    string
	BaseURL     string
	HTTPTimeout time.Duration
	UserAgent   string

	CircuitBreaker CircuitBreakerConfig
}

// Client implements domainreplicate.Client over the Replicate HTTP API.
type Client struct {
	http *resty.Client
	cb   *CircuitBreaker
}

var _ domainreplicate.Client = (*Client)(nil)

// NewClient builds a resty client authenticated with the bearer token.
// Requests are never retried.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "replicate-mcp/1.0"
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIToken).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(0)

	return &Client{
		http: httpClient,
		cb:   NewCircuitBreaker("replicate", cfg.CircuitBreaker),
	}
}

// CircuitState exposes the breaker state for health reporting.
func (c *Client) CircuitState() CircuitState {
	return c.cb.State()
}

func (c *Client) ListModels(ctx context.Context, cursor string) (*domainreplicate.Page, error) {
	return c.page(ctx, "list_models", http.MethodGet, "/models", cursor, nil)
}

func (c *Client) SearchModels(ctx context.Context, query, cursor string) (*domainreplicate.Page, error) {
	return c.page(ctx, "search_models", methodQuery, "/models", cursor, func(r *resty.Request) {
		r.SetHeader("Content-Type", "text/plain").SetBody(query)
	})
}

func (c *Client) GetModel(ctx context.Context, owner, name string) (domainreplicate.Object, error) {
	return c.object(ctx, "get_model", http.MethodGet, modelPath(owner, name), nil)
}

func (c *Client) ListModelVersions(ctx context.Context, owner, name, cursor string) (*domainreplicate.Page, error) {
	return c.page(ctx, "list_model_versions", http.MethodGet, modelPath(owner, name)+"/versions", cursor, nil)
}

// CreatePrediction posts to /predictions when a version is pinned and to the
// official-model endpoint otherwise.
func (c *Client) CreatePrediction(ctx context.Context, req domainreplicate.CreatePredictionRequest) (domainreplicate.Object, error) {
	path := "/predictions"
	if req.Version == "" && req.Model != nil {
		path = modelPath(req.Model.Owner, req.Model.Name) + "/predictions"
	}
	return c.object(ctx, "create_prediction", http.MethodPost, path, func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(req)
	})
}

func (c *Client) GetPrediction(ctx context.Context, id string) (domainreplicate.Object, error) {
	return c.object(ctx, "get_prediction", http.MethodGet, "/predictions/"+url.PathEscape(id), nil)
}

func (c *Client) CancelPrediction(ctx context.Context, id string) (domainreplicate.Object, error) {
	return c.object(ctx, "cancel_prediction", http.MethodPost, "/predictions/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *Client) ListPredictions(ctx context.Context, cursor string) (*domainreplicate.Page, error) {
	return c.page(ctx, "list_predictions", http.MethodGet, "/predictions", cursor, nil)
}

func (c *Client) ListCollections(ctx context.Context, cursor string) (*domainreplicate.Page, error) {
	return c.page(ctx, "list_collections", http.MethodGet, "/collections", cursor, nil)
}

func (c *Client) GetCollection(ctx context.Context, slug string) (domainreplicate.Object, error) {
	return c.object(ctx, "get_collection", http.MethodGet, "/collections/"+url.PathEscape(slug), nil)
}

func (c *Client) ListHardware(ctx context.Context) ([]domainreplicate.Object, error) {
	body, err := c.do(ctx, "list_hardware", http.MethodGet, "/hardware", nil)
	if err != nil {
		return nil, err
	}
	var items []domainreplicate.Object
	if err := decode(body, &items); err != nil {
		return nil, decodeError(ctx, "list_hardware", err)
	}
	return items, nil
}

func (c *Client) object(ctx context.Context, operation, method, path string, configure func(*resty.Request)) (domainreplicate.Object, error) {
	body, err := c.do(ctx, operation, method, path, configure)
	if err != nil {
		return nil, err
	}
	var obj domainreplicate.Object
	if err := decode(body, &obj); err != nil {
		return nil, decodeError(ctx, operation, err)
	}
	if obj == nil {
		return nil, decodeError(ctx, operation, errors.New("empty response body"))
	}
	return obj, nil
}

type pageBody struct {
	Next     *string                  `json:"next"`
	Previous *string                  `json:"previous"`
	Results  []domainreplicate.Object `json:"results"`
}

func (c *Client) page(ctx context.Context, operation, method, path, cursor string, configure func(*resty.Request)) (*domainreplicate.Page, error) {
	body, err := c.do(ctx, operation, method, path, func(r *resty.Request) {
		if cursor != "" {
			r.SetQueryParam("cursor", cursor)
		}
		if configure != nil {
			configure(r)
		}
	})
	if err != nil {
		return nil, err
	}
	var pb pageBody
	if err := decode(body, &pb); err != nil {
		return nil, decodeError(ctx, operation, err)
	}
	page := &domainreplicate.Page{Results: pb.Results}
	if pb.Next != nil {
		page.Next = *pb.Next
	}
	if pb.Previous != nil {
		page.Previous = *pb.Previous
	}
	return page, nil
}

// do performs one HTTP call through the circuit breaker and returns the raw
// body of a 2xx response. Every other outcome is a PlatformError.
func (c *Client) do(ctx context.Context, operation, method, path string, configure func(*resty.Request)) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "replicate."+operation,
		attribute.String("http.method", method),
		attribute.String("replicate.path", path),
	)
	defer span.End()

	start := time.Now()
	var body []byte
	err := c.cb.Execute(operation, func() error {
		req := c.http.R().SetContext(ctx)
		if configure != nil {
			configure(req)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("operation", operation).Msg("replicate request failed")
			return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnavailable,
				"replicate API unreachable", err, "a7c3e1f9-4b2d-4e86-9d0a-5f8b1c6e3d27",
				map[string]any{"operation": operation})
		}
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
		if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
			return statusError(ctx, operation, resp)
		}
		body = resp.Body()
		return nil
	}, isBreakerFailure)

	if errors.Is(err, ErrCircuitOpen) {
		log.Warn().Str("service", "replicate").Str("operation", operation).Msg("circuit breaker open; rejecting call")
		err = platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnavailable,
			"replicate API temporarily unavailable (circuit open)", err, "e4b8d2a6-1f7c-4a93-b5e0-8c3d9f2a6b14",
			map[string]any{"operation": operation})
	}

	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(string(platformerrors.TypeOf(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.RecordUpstream(operation, outcome, time.Since(start).Seconds())
	return body, err
}

func isBreakerFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnavailable)
}

// statusError maps a non-2xx upstream response onto the error taxonomy.
func statusError(ctx context.Context, operation string, resp *resty.Response) error {
	status := resp.StatusCode()
	detail := upstreamDetail(resp.Body())
	if detail == "" {
		detail = http.StatusText(status)
	}

	var errorType platformerrors.ErrorType
	var errUUID string
	switch {
	case status == http.StatusNotFound:
		errorType, errUUID = platformerrors.ErrorTypeNotFound, "3c9a5e1b-7d2f-4b84-a6e0-1f8c4d9b2e73"
	case status == http.StatusTooManyRequests:
		errorType, errUUID = platformerrors.ErrorTypeRateLimited, "b6e2d8f4-0a3c-4d17-9e5b-7c1a4f8d3b60"
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		errorType, errUUID = platformerrors.ErrorTypeUnavailable, "5f1b9d3e-c7a2-4e60-8b4d-2a6e0c9f1d85"
		detail = "replicate rejected credentials: " + detail
	case status >= 500:
		errorType, errUUID = platformerrors.ErrorTypeUnavailable, "d0a6c4e8-2b9f-4f31-a7d5-9e3b1c8f6a42"
	default:
		errorType, errUUID = platformerrors.ErrorTypeValidation, "8e4f0b2d-6c1a-4b95-9f37-e5a2d7c3b081"
	}

	log.Error().
		Int("status", status).
		Str("service", "replicate").
		Str("operation", operation).
		Str("error_type", string(errorType)).
		Msg("replicate API error")

	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, errorType,
		detail, fmt.Errorf("replicate %s: status %d", operation, status), errUUID,
		map[string]any{"operation": operation, "status_code": status})
}

// upstreamDetail pulls a human readable message out of an error body.
func upstreamDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		return payload.Title
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxDetailLen {
		cut := maxDetailLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

func decode(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func decodeError(ctx context.Context, operation string, err error) error {
	log.Error().Err(err).Str("service", "replicate").Str("operation", operation).Msg("failed to decode replicate response")
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnavailable,
		"malformed replicate response", err, "2a8d6f0c-e4b1-4c79-8a3e-6d0f5b9c2e17",
		map[string]any{"operation": operation})
}

func modelPath(owner, name string) string {
	return "/models/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
}
