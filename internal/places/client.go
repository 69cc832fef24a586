// Package places is the HTTP client for the external place search API. It
// returns raw, unranked data; ranking and reconciliation belong to the
// caller.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/config"
	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/observability"
	"github.com/knowplaces/placeflow/internal/resilience"
)

// Service is the search API surface consumed by the orchestrator.
type Service interface {
	Search(ctx context.Context, req *Request) ([]models.SearchResult, error)
	Recommend(ctx context.Context, req *Request) ([]models.RecommendedResult, error)
	Autocomplete(ctx context.Context, text string, req *Request) ([]models.Candidate, error)
	AutocompleteTastes(ctx context.Context, text string) ([]models.Candidate, error)
	Details(ctx context.Context, fsqID string) (*models.DetailsResult, error)
	RelatedTo(ctx context.Context, fsqID string) ([]models.SearchResult, error)
}

// Request carries the structured parameters of one search call plus the
// resolved location.
type Request struct {
	Query         string
	Latitude      float64
	Longitude     float64
	Radius        int
	MinPrice      int
	MaxPrice      int
	OpenNow       bool
	CategoryCodes []string
	Limit         int
}

type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	cb       *gobreaker.CircuitBreaker
	retryCfg resilience.RetryConfig
	logger   *zap.Logger
}

func NewClient(cfg config.PlacesConfig, pipeCfg config.PipelineConfig, logger *zap.Logger) *Client {
	cb := resilience.NewCircuitBreaker("places-api", pipeCfg.CircuitBreaker, logger)

	return &Client{
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		cb:      cb,
		retryCfg: resilience.RetryConfig{
			MaxAttempts: pipeCfg.Retry.MaxAttempts,
			InitialWait: pipeCfg.Retry.InitialWait,
			MaxWait:     pipeCfg.Retry.MaxWait,
			Multiplier:  pipeCfg.Retry.Multiplier,
		},
		logger: logger,
	}
}

func (c *Client) Search(ctx context.Context, req *Request) ([]models.SearchResult, error) {
	var resp searchResponse
	if err := c.get(ctx, "search", buildValues(req), &resp); err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	return toSearchResults(resp.Results), nil
}

func (c *Client) Recommend(ctx context.Context, req *Request) ([]models.RecommendedResult, error) {
	var resp searchResponse
	if err := c.get(ctx, "recommend", buildValues(req), &resp); err != nil {
		return nil, fmt.Errorf("places recommend: %w", err)
	}
	out := make([]models.RecommendedResult, 0, len(resp.Results))
	for _, p := range resp.Results {
		out = append(out, p.recommended())
	}
	return out, nil
}

func (c *Client) Autocomplete(ctx context.Context, text string, req *Request) ([]models.Candidate, error) {
	values := buildValues(req)
	values.Set("query", text)
	var resp autocompleteResponse
	if err := c.get(ctx, "autocomplete", values, &resp); err != nil {
		return nil, fmt.Errorf("places autocomplete: %w", err)
	}
	return toCandidates(resp.Results), nil
}

func (c *Client) AutocompleteTastes(ctx context.Context, text string) ([]models.Candidate, error) {
	values := url.Values{}
	values.Set("query", text)
	values.Set("types", "tastes")
	var resp autocompleteResponse
	if err := c.get(ctx, "autocomplete", values, &resp); err != nil {
		return nil, fmt.Errorf("places taste autocomplete: %w", err)
	}
	return toCandidates(resp.Results), nil
}

func (c *Client) Details(ctx context.Context, fsqID string) (*models.DetailsResult, error) {
	var resp placePayload
	if err := c.get(ctx, "places/"+url.PathEscape(fsqID), url.Values{}, &resp); err != nil {
		return nil, fmt.Errorf("places details %s: %w", fsqID, err)
	}
	d := resp.details()
	return &d, nil
}

func (c *Client) RelatedTo(ctx context.Context, fsqID string) ([]models.SearchResult, error) {
	var resp relatedResponse
	if err := c.get(ctx, "places/"+url.PathEscape(fsqID)+"/related", url.Values{}, &resp); err != nil {
		return nil, fmt.Errorf("places related %s: %w", fsqID, err)
	}
	return toSearchResults(resp.Related), nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	ctx, span := observability.StartSpan(ctx, "places."+path,
		attribute.String("places.path", path),
	)
	defer span.End()

	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		retryErr := resilience.Retry(ctx, c.retryCfg, func() error {
			return c.executeGet(ctx, path, values, out)
		})
		return nil, retryErr
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.PlacesRequestDuration.WithLabelValues(path, status).Observe(time.Since(start).Seconds())
	return err
}

func (c *Client) executeGet(ctx context.Context, path string, values url.Values, out any) error {
	u := fmt.Sprintf("%s/%s", c.baseURL, path)
	if len(values) > 0 {
		u += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("places api status=%d body=%s", res.StatusCode, string(body))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
