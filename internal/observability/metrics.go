package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "turn_duration_seconds",
			Help:    "End-to-end turn duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.15, 0.2, 0.5, 1, 2.5},
		},
		[]string{"intent", "status"},
	)

	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turns_total",
			Help: "Total number of turns processed",
		},
		[]string{"intent", "status"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	PlacesRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "places_request_duration_seconds",
			Help:    "Places API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.15, 0.2, 0.5, 1},
		},
		[]string{"operation", "status"},
	)

	GeocodeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geocode_request_duration_seconds",
			Help:    "Geocoding request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"status"},
	)

	CHQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ch_query_duration_seconds",
			Help:    "ClickHouse query duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"query_type", "status"},
	)

	CategoryMatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "category_match_duration_seconds",
			Help:    "Taxonomy category match duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	IndexRebuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "result_index_rebuilds_total",
			Help: "Total number of result index rebuilds",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	SlowTurnCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slow_turn_total",
			Help: "Total number of slow turns",
		},
		[]string{"severity", "intent"},
	)

	DegradedTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "degraded_turns_total",
			Help: "Turns that completed with a degraded collaborator",
		},
		[]string{"collaborator"},
	)

	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections to backend systems",
		},
		[]string{"backend"},
	)
)
