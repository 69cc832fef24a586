package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/analytics"
	"github.com/knowplaces/placeflow/internal/models"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// TurnService is the orchestrator surface the HTTP layer depends on.
type TurnService interface {
	Turn(ctx context.Context, req *models.TurnRequest) (*models.TurnResponse, error)
	UpdateLast(ctx context.Context, req *models.TurnRequest) (*models.TurnResponse, error)
	Undo(ctx context.Context, conversationID string) (*models.TurnResponse, error)
	Reset(ctx context.Context, conversationID string) error
}

// StatsSource serves the per-intent analytics breakdown.
type StatsSource interface {
	IntentBreakdown(ctx context.Context, since time.Time) ([]analytics.IntentStat, error)
}

type Handler struct {
	turns  TurnService
	stats  StatsSource
	logger *zap.Logger
}

func NewHandler(turns TurnService, stats StatsSource, logger *zap.Logger) *Handler {
	return &Handler{
		turns:  turns,
		stats:  stats,
		logger: logger,
	}
}

func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	h.runTurn(w, r, h.turns.Turn)
}

// UpdateTurn refines the previous turn instead of starting a new one.
func (h *Handler) UpdateTurn(w http.ResponseWriter, r *http.Request) {
	h.runTurn(w, r, h.turns.UpdateLast)
}

func (h *Handler) runTurn(w http.ResponseWriter, r *http.Request, run func(context.Context, *models.TurnRequest) (*models.TurnResponse, error)) {
	ctx := r.Context()
	requestID := RequestIDFromContext(ctx)

	req, err := h.parseTurnRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.ConversationID == "" {
		h.writeError(w, http.StatusBadRequest, "missing_conversation", "Parameter 'conversation_id' is required")
		return
	}
	req.RequestID = requestID

	resp, err := run(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMissingDestination):
			h.writeError(w, http.StatusUnprocessableEntity, "missing_destination", err.Error())
		case errors.Is(err, models.ErrGeocodingFailed):
			h.writeError(w, http.StatusUnprocessableEntity, "geocoding_failed", err.Error())
		default:
			h.logger.Error("turn failed",
				zap.String("request_id", requestID),
				zap.String("conversation_id", req.ConversationID),
				zap.Error(err),
			)
			h.writeError(w, http.StatusInternalServerError, "turn_error", "Turn pipeline temporarily unavailable")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

const maxAutocompletePrefixLen = 100

// Autocomplete runs a turn with the place-autocomplete override and returns
// only the candidate list.
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	h.autocomplete(w, r, "autocomplete_search")
}

// Tastes autocompletes against the taste vocabulary instead of place names.
func (h *Handler) Tastes(w http.ResponseWriter, r *http.Request) {
	h.autocomplete(w, r, "autocomplete_tastes")
}

func (h *Handler) autocomplete(w http.ResponseWriter, r *http.Request, override string) {
	ctx := r.Context()

	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		h.writeError(w, http.StatusBadRequest, "missing_conversation", "Parameter 'conversation_id' is required")
		return
	}
	prefix := r.URL.Query().Get("q")
	if len(prefix) > maxAutocompletePrefixLen {
		prefix = prefix[:maxAutocompletePrefixLen]
	}

	resp, err := h.turns.Turn(ctx, &models.TurnRequest{
		ConversationID: conversationID,
		Caption:        prefix,
		Override:       override,
		RequestID:      RequestIDFromContext(ctx),
	})
	if err != nil {
		h.logger.Error("autocomplete failed", zap.Error(err))
		h.writeJSON(w, http.StatusOK, map[string]any{
			"suggestions": []models.Candidate{},
			"source":      "none",
		})
		return
	}

	suggestions := resp.Candidates
	if suggestions == nil {
		suggestions = []models.Candidate{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"source":      resp.Source,
	})
}

// Undo rolls the conversation back one turn and returns the restored state.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		h.writeError(w, http.StatusBadRequest, "missing_conversation", "Parameter 'conversation_id' is required")
		return
	}

	resp, err := h.turns.Undo(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("undo failed", zap.String("conversation_id", conversationID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "undo_error", "Undo temporarily unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Reset clears the conversation state and its cached turns.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		h.writeError(w, http.StatusBadRequest, "missing_conversation", "Parameter 'conversation_id' is required")
		return
	}

	if err := h.turns.Reset(r.Context(), conversationID); err != nil {
		h.logger.Error("reset failed", zap.String("conversation_id", conversationID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "reset_error", "Reset temporarily unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Stats serves the per-intent turn breakdown, by default over the last day.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		h.writeError(w, http.StatusServiceUnavailable, "stats_unavailable", "Analytics store not configured")
		return
	}

	hours := 24
	if s := r.URL.Query().Get("since_hours"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			hours = parsed
		}
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	stats, err := h.stats.IntentBreakdown(r.Context(), since)
	if err != nil {
		h.logger.Error("stats query failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "stats_error", "Analytics store temporarily unavailable")
		return
	}
	if stats == nil {
		stats = []analytics.IntentStat{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"since":   since.UTC().Format(time.RFC3339),
		"intents": stats,
	})
}

func (h *Handler) parseTurnRequest(r *http.Request) (*models.TurnRequest, error) {
	if r.Method == http.MethodPost {
		var req models.TurnRequest
		limited := io.LimitReader(r.Body, maxRequestBodySize)
		if err := json.NewDecoder(limited).Decode(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	// GET request
	req := &models.TurnRequest{
		ConversationID: r.URL.Query().Get("conversation_id"),
		Caption:        r.URL.Query().Get("q"),
		Override:       r.URL.Query().Get("override"),
		SelectedFsqID:  r.URL.Query().Get("selected_fsq_id"),
	}

	if d := r.URL.Query().Get("destination_id"); d != "" {
		id, err := uuid.Parse(d)
		if err != nil {
			return nil, err
		}
		req.DestinationID = id
	}
	if lat := r.URL.Query().Get("lat"); lat != "" {
		v, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return nil, err
		}
		req.Latitude = v
	}
	if lon := r.URL.Query().Get("lon"); lon != "" {
		v, err := strconv.ParseFloat(lon, 64)
		if err != nil {
			return nil, err
		}
		req.Longitude = v
	}
	if r.URL.Query().Get("force_fresh") == "true" {
		req.ForceFresh = true
	}

	return req, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("writing json response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
