// Package geocode resolves near-phrases to coordinates and coordinates back
// to canonical display names.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/knowplaces/placeflow/internal/config"
	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/observability"
)

// Geocoder is the collaborator contract consumed by the orchestrator.
type Geocoder interface {
	Geocode(ctx context.Context, text string) ([]models.Placemark, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) ([]models.Placemark, error)
}

// Client resolves phrases over HTTP. A concurrent resolution of the same
// phrase joins the in-flight call instead of issuing a duplicate request,
// and resolved phrases are held in a bounded cache.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	group   singleflight.Group
	cache   *ristretto.Cache[string, []models.Placemark]
	ttl     time.Duration
	logger  *zap.Logger
}

func NewClient(cfg config.GeocoderConfig, logger *zap.Logger) (*Client, error) {
	entries := cfg.CacheEntries
	if entries <= 0 {
		entries = 10000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []models.Placemark]{
		NumCounters: entries * 10,
		MaxCost:     entries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating geocode cache: %w", err)
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		cache:   cache,
		ttl:     cfg.CacheTTL,
		logger:  logger,
	}, nil
}

// Geocode resolves a phrase to placemarks. Duplicate concurrent calls for
// the same phrase share one request and one result.
func (c *Client) Geocode(ctx context.Context, text string) ([]models.Placemark, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return nil, models.ErrGeocodingFailed
	}

	if cached, ok := c.cache.Get(key); ok {
		observability.CacheHits.WithLabelValues("geocode").Inc()
		return cached, nil
	}
	observability.CacheMisses.WithLabelValues("geocode").Inc()

	result, err, _ := c.group.Do(key, func() (any, error) {
		marks, err := c.fetch(ctx, "search", url.Values{"q": {key}})
		if err != nil {
			return nil, err
		}
		c.cache.SetWithTTL(key, marks, 1, c.ttl)
		return marks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Placemark), nil
}

// ReverseGeocode resolves a coordinate to placemarks for canonical naming.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) ([]models.Placemark, error) {
	key := fmt.Sprintf("rev:%.5f,%.5f", lat, lon)
	if cached, ok := c.cache.Get(key); ok {
		observability.CacheHits.WithLabelValues("geocode").Inc()
		return cached, nil
	}
	observability.CacheMisses.WithLabelValues("geocode").Inc()

	result, err, _ := c.group.Do(key, func() (any, error) {
		values := url.Values{
			"lat": {strconv.FormatFloat(lat, 'f', 6, 64)},
			"lon": {strconv.FormatFloat(lon, 'f', 6, 64)},
		}
		marks, err := c.fetch(ctx, "reverse", values)
		if err != nil {
			return nil, err
		}
		c.cache.SetWithTTL(key, marks, 1, c.ttl)
		return marks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Placemark), nil
}

func (c *Client) fetch(ctx context.Context, path string, values url.Values) ([]models.Placemark, error) {
	start := time.Now()
	values.Set("format", "jsonv2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building geocode request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		observability.GeocodeRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("executing geocode request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		observability.GeocodeRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("geocode status=%d body=%s", res.StatusCode, string(body))
	}

	marks, err := decodePlacemarks(res.Body, path == "reverse")
	if err != nil {
		observability.GeocodeRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}
	observability.GeocodeRequestDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	return marks, nil
}

type geocodePayload struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		Suburb  string `json:"suburb"`
		City    string `json:"city"`
		Town    string `json:"town"`
		Country string `json:"country"`
	} `json:"address"`
}

func decodePlacemarks(r io.Reader, single bool) ([]models.Placemark, error) {
	var payloads []geocodePayload
	if single {
		var p geocodePayload
		if err := json.NewDecoder(r).Decode(&p); err != nil {
			return nil, fmt.Errorf("decoding geocode response: %w", err)
		}
		payloads = []geocodePayload{p}
	} else {
		if err := json.NewDecoder(r).Decode(&payloads); err != nil {
			return nil, fmt.Errorf("decoding geocode response: %w", err)
		}
	}

	marks := make([]models.Placemark, 0, len(payloads))
	for _, p := range payloads {
		lat, _ := strconv.ParseFloat(p.Lat, 64)
		lon, _ := strconv.ParseFloat(p.Lon, 64)
		name := p.Name
		if name == "" {
			name = p.DisplayName
		}
		locality := p.Address.City
		if locality == "" {
			locality = p.Address.Town
		}
		marks = append(marks, models.Placemark{
			Name:        name,
			Locality:    locality,
			SubLocality: p.Address.Suburb,
			Country:     p.Address.Country,
			Latitude:    lat,
			Longitude:   lon,
		})
	}
	return marks, nil
}

// CanonicalName picks the display name for a placemark: the most specific
// named component wins.
func CanonicalName(mark models.Placemark) string {
	switch {
	case mark.Name != "":
		return mark.Name
	case mark.SubLocality != "":
		return mark.SubLocality
	case mark.Locality != "":
		return mark.Locality
	default:
		return mark.Country
	}
}
