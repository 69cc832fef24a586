package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/config"
	"github.com/knowplaces/placeflow/internal/models"
)

const searchPayload = `[{
	"display_name": "Golden Gate Park, San Francisco, California, United States",
	"name": "Golden Gate Park",
	"lat": "37.7694",
	"lon": "-122.4862",
	"address": {"suburb": "Richmond District", "city": "San Francisco", "country": "United States"}
}]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.GeocoderConfig{
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
		CacheEntries:   100,
		CacheTTL:       time.Minute,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestGeocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "golden gate park" {
			t.Errorf("q = %q, want lower-cased trimmed phrase", got)
		}
		w.Write([]byte(searchPayload))
	})

	marks, err := client.Geocode(context.Background(), "  Golden Gate Park ")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if len(marks) != 1 {
		t.Fatalf("expected 1 placemark, got %d", len(marks))
	}
	if marks[0].Name != "Golden Gate Park" {
		t.Errorf("name = %q", marks[0].Name)
	}
	if marks[0].Latitude == 0 || marks[0].Longitude == 0 {
		t.Errorf("coordinates not parsed: %+v", marks[0])
	}
	if marks[0].Locality != "San Francisco" {
		t.Errorf("locality = %q", marks[0].Locality)
	}
}

func TestGeocode_EmptyPhrase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty phrase")
	})

	if _, err := client.Geocode(context.Background(), "   "); err != models.ErrGeocodingFailed {
		t.Errorf("expected ErrGeocodingFailed, got %v", err)
	}
}

func TestGeocode_DeduplicatesInFlight(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(searchPayload))
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Geocode(context.Background(), "golden gate park"); err != nil {
				t.Errorf("Geocode() error = %v", err)
			}
		}()
	}

	// Let the goroutines pile onto the in-flight call, then release it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 upstream call for 5 concurrent resolutions, got %d", got)
	}
}

func TestGeocode_CachesResolvedPhrases(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(searchPayload))
	})

	ctx := context.Background()
	if _, err := client.Geocode(ctx, "golden gate park"); err != nil {
		t.Fatal(err)
	}
	// Ristretto applies sets asynchronously.
	client.cache.Wait()
	if _, err := client.Geocode(ctx, "Golden Gate Park"); err != nil {
		t.Fatal(err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("expected second resolution to hit the cache, got %d upstream calls", got)
	}
}

func TestGeocode_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if _, err := client.Geocode(context.Background(), "somewhere"); err == nil {
		t.Error("expected error for upstream failure")
	}
}

func TestReverseGeocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"display_name": "North Beach, San Francisco",
			"lat": "37.8",
			"lon": "-122.41",
			"address": {"suburb": "North Beach", "city": "San Francisco", "country": "United States"}
		}`))
	})

	marks, err := client.ReverseGeocode(context.Background(), 37.8, -122.41)
	if err != nil {
		t.Fatalf("ReverseGeocode() error = %v", err)
	}
	if len(marks) != 1 {
		t.Fatalf("expected 1 placemark, got %d", len(marks))
	}
	if marks[0].SubLocality != "North Beach" {
		t.Errorf("sub locality = %q", marks[0].SubLocality)
	}
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name string
		mark models.Placemark
		want string
	}{
		{"name wins", models.Placemark{Name: "Golden Gate Park", Locality: "San Francisco"}, "Golden Gate Park"},
		{"sub locality next", models.Placemark{SubLocality: "North Beach", Locality: "San Francisco"}, "North Beach"},
		{"locality next", models.Placemark{Locality: "San Francisco", Country: "United States"}, "San Francisco"},
		{"country last", models.Placemark{Country: "United States"}, "United States"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalName(tt.mark); got != tt.want {
				t.Errorf("CanonicalName() = %q, want %q", got, tt.want)
			}
		})
	}
}
