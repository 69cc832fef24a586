package models

import "time"

// AnalyticsEvent is one row written to the analytics store. Turn performance
// events feed the slow-turn dashboard; error events feed failure triage.
type AnalyticsEvent struct {
	EventType   string    `json:"event_type" ch:"event_type"`
	QueryHash   string    `json:"query_hash" ch:"query_hash"`
	Intent      string    `json:"intent" ch:"intent"`
	DurationMs  float64   `json:"duration_ms" ch:"duration_ms"`
	ResultCount int64     `json:"result_count" ch:"result_count"`
	SourcesHit  int       `json:"sources_hit" ch:"sources_hit"`
	Degraded    bool      `json:"degraded" ch:"degraded"`
	Message     string    `json:"message,omitempty" ch:"message"`
	Timestamp   time.Time `json:"timestamp" ch:"timestamp"`
	TraceID     string    `json:"trace_id" ch:"trace_id"`
}
