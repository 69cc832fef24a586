package models

import "github.com/google/uuid"

// TurnRequest is one user turn submitted to the pipeline.
type TurnRequest struct {
	ConversationID string    `json:"conversation_id"`
	Caption        string    `json:"caption"`
	Override       string    `json:"override,omitempty"`
	SelectedFsqID  string    `json:"selected_fsq_id,omitempty"`
	DestinationID  uuid.UUID `json:"destination_id,omitempty"`
	Latitude       float64   `json:"latitude,omitempty"`
	Longitude      float64   `json:"longitude,omitempty"`
	ForceFresh     bool      `json:"force_fresh,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
}

// TurnResponse is the reconciled output of one turn.
type TurnResponse struct {
	Intent      string                `json:"intent"`
	Caption     string                `json:"caption"`
	Section     Section               `json:"section"`
	Params      *StructuredParameters `json:"params,omitempty"`
	Places      []PlaceView           `json:"places,omitempty"`
	Recommended []PlaceView           `json:"recommended,omitempty"`
	Related     []PlaceView           `json:"related,omitempty"`
	Candidates  []Candidate           `json:"candidates,omitempty"`
	Locations   []LocationResult      `json:"locations,omitempty"`
	Source      string                `json:"source"`
	Degraded    bool                  `json:"degraded,omitempty"`
	Stale       bool                  `json:"stale,omitempty"`
	CacheHit    bool                  `json:"cache_hit,omitempty"`
	TookMs      int64                 `json:"took_ms"`
	RequestID   string                `json:"request_id,omitempty"`
}
