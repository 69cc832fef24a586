// Package orchestrator runs the turn pipeline: classify the caption,
// extract structured parameters, dispatch to the place and geocoding
// collaborators, reconcile the results, and rebuild the lookup index.
// Collaborator failures are reported and degrade the turn; only the typed
// destination errors propagate to the caller.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/config"
	"github.com/knowplaces/placeflow/internal/geocode"
	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/observability"
	"github.com/knowplaces/placeflow/internal/places"
	"github.com/knowplaces/placeflow/internal/recommender"
	"github.com/knowplaces/placeflow/internal/reconcile"
	"github.com/knowplaces/placeflow/internal/resultindex"
	"github.com/knowplaces/placeflow/internal/store"
	"github.com/knowplaces/placeflow/internal/taxonomy"
)

// conversation is the per-conversation mutable state: the intent history,
// the result collections, and the index rebuilt after every mutation.
type conversation struct {
	mu          sync.Mutex
	history     *IntentHistory
	collections *models.ResultCollections
	index       *resultindex.LookupIndex
	model       *recommender.Model
	loaded      bool
}

// TurnEventPublisher streams completed turns into the analytics ingest
// topic. The reporter implements it in production; a reporter without it
// simply skips event publishing.
type TurnEventPublisher interface {
	PublishTurnEvent(ctx context.Context, event *models.AnalyticsEvent) error
}

// TurnCache is the subset of the Redis cache the pipeline consumes.
type TurnCache interface {
	GetTurnResults(ctx context.Context, req *models.TurnRequest) (*models.TurnResponse, error)
	SetTurnResults(ctx context.Context, req *models.TurnRequest, resp *models.TurnResponse) error
	GetStaleResults(ctx context.Context, req *models.TurnRequest) (*models.TurnResponse, error)
	GetAutocomplete(ctx context.Context, prefix string) ([]models.Candidate, error)
	SetAutocomplete(ctx context.Context, prefix string, results []models.Candidate) error
	InvalidateConversation(ctx context.Context, conversationID string) error
}

type Orchestrator struct {
	classifier *IntentClassifier
	extractor  *ParameterExtractor
	placesSvc  places.Service
	geocoder   geocode.Geocoder
	records    store.RecordStore
	cache      TurnCache
	reporter   ErrorReporter
	slowTurn   *observability.SlowTurnDetector
	cfg        config.PipelineConfig
	logger     *zap.Logger

	mu            sync.RWMutex
	conversations map[string]*conversation
}

func New(
	classifier *IntentClassifier,
	extractor *ParameterExtractor,
	placesSvc places.Service,
	geocoder geocode.Geocoder,
	records store.RecordStore,
	turnCache TurnCache,
	reporter ErrorReporter,
	slowTurn *observability.SlowTurnDetector,
	cfg config.PipelineConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		classifier:    classifier,
		extractor:     extractor,
		placesSvc:     placesSvc,
		geocoder:      geocoder,
		records:       records,
		cache:         turnCache,
		reporter:      reporter,
		slowTurn:      slowTurn,
		cfg:           cfg,
		logger:        logger,
		conversations: make(map[string]*conversation),
	}
}

// Turn runs one user turn end to end and appends the resulting intent to
// the conversation history.
func (o *Orchestrator) Turn(ctx context.Context, req *models.TurnRequest) (*models.TurnResponse, error) {
	return o.runTurn(ctx, req, false)
}

// UpdateLast runs one user turn that refines the previous one: the live
// intent is replaced instead of appended, and the accumulated results carry
// forward into the replacement.
func (o *Orchestrator) UpdateLast(ctx context.Context, req *models.TurnRequest) (*models.TurnResponse, error) {
	return o.runTurn(ctx, req, true)
}

func (o *Orchestrator) runTurn(ctx context.Context, req *models.TurnRequest, replaceLast bool) (*models.TurnResponse, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "orchestrator.turn",
		attribute.String("conversation_id", req.ConversationID),
	)
	defer span.End()

	kind := o.classifier.Classify(req.Caption, overrideKind(req.Override))
	span.SetAttributes(attribute.String("intent", kind.String()))

	conv := o.conversation(req.ConversationID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	o.loadStoredRecords(ctx, conv, req.ConversationID)

	params := o.extractor.Extract(req.Caption)
	params.Section = o.classifier.Section(ctx, params.EffectiveQuery(req.Caption))
	if params.Limit == 0 {
		params.Limit = o.cfg.DefaultLimit
	}
	if params.Limit > o.cfg.MaxLimit {
		params.Limit = o.cfg.MaxLimit
	}

	var intent *models.Intent
	if prev := conv.history.Last(); replaceLast && prev != nil {
		intent = prev.CarryForward(req.Caption, kind, req.DestinationID, params)
	} else {
		intent = models.NewIntent(req.Caption, kind, req.DestinationID, params)
	}

	// A cached turn still advances the conversation: the intent is recorded
	// and persisted, only the collaborator fan-out is skipped.
	if !req.ForceFresh && o.cache != nil {
		cached, err := o.cache.GetTurnResults(ctx, req)
		if err != nil {
			o.logger.Warn("cache lookup error", zap.Error(err))
		}
		if cached != nil {
			if replaceLast {
				conv.history.ReplaceLast(intent)
			} else {
				conv.history.Append(intent)
			}
			o.persistHistory(ctx, conv, req.ConversationID)

			cached.CacheHit = true
			cached.TookMs = time.Since(start).Milliseconds()
			observability.TurnsTotal.WithLabelValues(kind.String(), "cache_hit").Inc()
			return cached, nil
		}
	}

	degraded, err := o.dispatch(ctx, conv, intent, req)
	if err != nil {
		if errors.Is(err, models.ErrMissingDestination) || errors.Is(err, models.ErrGeocodingFailed) {
			observability.TurnsTotal.WithLabelValues(kind.String(), "error").Inc()
			return nil, err
		}
		o.logger.Warn("turn dispatch failed, trying stale cache", zap.Error(err))
		if stale := o.staleFallback(ctx, req); stale != nil {
			stale.TookMs = time.Since(start).Milliseconds()
			observability.TurnsTotal.WithLabelValues(kind.String(), "stale").Inc()
			return stale, nil
		}
		observability.TurnsTotal.WithLabelValues(kind.String(), "error").Inc()
		observability.TurnDuration.WithLabelValues(kind.String(), "error").Observe(time.Since(start).Seconds())
		return nil, err
	}

	if replaceLast {
		conv.history.ReplaceLast(intent)
	} else {
		conv.history.Append(intent)
	}

	o.reconcileIntent(conv, intent)
	o.persistHistory(ctx, conv, req.ConversationID)

	resp := o.buildResponse(conv, intent, req)
	resp.Degraded = degraded
	resp.TookMs = time.Since(start).Milliseconds()

	if o.cache != nil {
		if err := o.cache.SetTurnResults(ctx, req, resp); err != nil {
			o.logger.Warn("cache set error", zap.Error(err))
		}
	}

	observability.TurnsTotal.WithLabelValues(kind.String(), "success").Inc()
	observability.TurnDuration.WithLabelValues(kind.String(), "success").Observe(time.Since(start).Seconds())

	if o.slowTurn != nil {
		o.slowTurn.Intercept(ctx, req.Caption, kind.String(),
			time.Since(start), int64(resultCount(resp)), sourcesHit(intent), degraded)
	}

	o.publishTurnEvent(&models.AnalyticsEvent{
		EventType:   "turn_completed",
		QueryHash:   observability.CaptionHash(req.Caption),
		Intent:      kind.String(),
		DurationMs:  float64(time.Since(start).Milliseconds()),
		ResultCount: int64(resultCount(resp)),
		SourcesHit:  sourcesHit(intent),
		Degraded:    degraded,
		Timestamp:   time.Now().UTC(),
		TraceID:     observability.TraceIDFromContext(ctx),
	})

	return resp, nil
}

// publishTurnEvent streams one completed turn to the analytics pipeline when
// the reporter supports it. Fire and forget: the response never waits on the
// broker.
func (o *Orchestrator) publishTurnEvent(event *models.AnalyticsEvent) {
	pub, ok := o.reporter.(TurnEventPublisher)
	if !ok {
		return
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := pub.PublishTurnEvent(pubCtx, event); err != nil {
			o.logger.Warn("publishing turn event", zap.Error(err))
		}
	}()
}

// Undo drops the live intent and re-reconciles the conversation around the
// previous one. With fewer than two history entries it is a no-op that
// returns the current state.
func (o *Orchestrator) Undo(ctx context.Context, conversationID string) (*models.TurnResponse, error) {
	ctx, span := observability.StartSpan(ctx, "orchestrator.undo",
		attribute.String("conversation_id", conversationID),
	)
	defer span.End()

	conv := o.conversation(conversationID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	intent := conv.history.Undo()
	if intent == nil {
		intent = conv.history.Last()
		if intent == nil {
			return &models.TurnResponse{Source: "history"}, nil
		}
	} else {
		o.reconcileIntent(conv, intent)
		if o.cache != nil {
			if err := o.cache.InvalidateConversation(ctx, conversationID); err != nil {
				o.logger.Warn("cache invalidation error", zap.Error(err))
			}
		}
		o.persistHistory(ctx, conv, conversationID)
	}

	resp := o.buildResponse(conv, intent, &models.TurnRequest{ConversationID: conversationID})
	resp.Source = "history"
	return resp, nil
}

// Reset clears the conversation: history, collections, index, and every
// cached turn for the conversation.
func (o *Orchestrator) Reset(ctx context.Context, conversationID string) error {
	ctx, span := observability.StartSpan(ctx, "orchestrator.reset",
		attribute.String("conversation_id", conversationID),
	)
	defer span.End()

	conv := o.conversation(conversationID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	conv.history.Reset()
	conv.collections = &models.ResultCollections{}
	conv.index = resultindex.Rebuild(conv.collections)
	conv.model = nil
	conv.loaded = false

	// Drop the place records this pipeline wrote for the conversation; the
	// taste and industry groups belong to the profile, not the session.
	if o.records != nil {
		if err := o.records.DeleteGroup(ctx, conversationID, models.GroupPlace); err != nil {
			o.report(ctx, err, "record store delete place group")
		}
	}

	if o.cache != nil {
		if err := o.cache.InvalidateConversation(ctx, conversationID); err != nil {
			o.logger.Warn("cache invalidation error", zap.Error(err))
		}
	}
	return nil
}

// Lookup resolves a locally assigned view id against the current index.
func (o *Orchestrator) Lookup(conversationID string, id string) (models.PlaceView, bool) {
	conv := o.conversation(conversationID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	if conv.index == nil {
		return models.PlaceView{}, false
	}
	return conv.index.ViewByFsqID(id)
}

func (o *Orchestrator) dispatch(ctx context.Context, conv *conversation, intent *models.Intent, req *models.TurnRequest) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.TurnTimeout)
	defer cancel()

	switch intent.Kind {
	case models.IntentPlace:
		return o.dispatchPlace(ctx, conv, intent, req)
	case models.IntentLocation:
		return o.dispatchLocation(ctx, intent, req)
	case models.IntentAutocompleteSearch:
		return o.dispatchAutocomplete(ctx, intent, req)
	case models.IntentAutocompleteTastes:
		return o.dispatchAutocompleteTastes(ctx, intent)
	default:
		return o.dispatchSearch(ctx, intent, req)
	}
}

// dispatchPlace resolves full details for the selected place and expands
// its related places. An already resolved selection skips the details call.
func (o *Orchestrator) dispatchPlace(ctx context.Context, conv *conversation, intent *models.Intent, req *models.TurnRequest) (bool, error) {
	fsqID := req.SelectedFsqID
	if fsqID == "" && intent.SelectedSearchResult != nil {
		fsqID = intent.SelectedSearchResult.FsqID
	}
	if fsqID == "" {
		return false, fmt.Errorf("place turn without a selected place")
	}

	if intent.SelectedSearchResult == nil && conv.index != nil {
		if view, ok := conv.index.ViewByFsqID(fsqID); ok && view.Place != nil {
			intent.SelectedSearchResult = view.Place
		}
	}

	if intent.SelectedDetails == nil || intent.SelectedDetails.FsqID != fsqID {
		details, err := o.placesSvc.Details(ctx, fsqID)
		if err != nil {
			return false, fmt.Errorf("place details: %w", err)
		}
		intent.SelectedDetails = details
		intent.DetailsResults = append(intent.DetailsResults, *details)
		if intent.SelectedSearchResult == nil {
			intent.SelectedSearchResult = &details.SearchResult
		}
		o.storePlaceRecord(ctx, req.ConversationID, intent, details)
	}

	degraded := false
	related, err := o.placesSvc.RelatedTo(ctx, fsqID)
	if err != nil {
		o.report(ctx, err, "related places")
		observability.DegradedTurnsTotal.WithLabelValues("places").Inc()
		degraded = true
	} else {
		intent.RelatedResults = related
	}
	return degraded, nil
}

// storePlaceRecord writes the viewed place into the conversation's place
// group, so future sessions surface it as a cached record. Write loss never
// degrades the turn the user sees.
func (o *Orchestrator) storePlaceRecord(ctx context.Context, conversationID string, intent *models.Intent, details *models.DetailsResult) {
	if o.records == nil {
		return
	}
	section := models.SectionTopPicks
	if intent.Params != nil {
		section = intent.Params.Section
	}
	record := models.CategoryResult{
		ID:             uuid.New(),
		ParentCategory: details.SearchResult.Name,
		Section:        section,
		List:           details.FsqID,
	}
	if err := o.records.StoreGroup(ctx, conversationID, models.GroupPlace, []models.CategoryResult{record}); err != nil {
		o.report(ctx, err, "record store place group")
		observability.DegradedTurnsTotal.WithLabelValues("store").Inc()
	}
}

// dispatchLocation resolves the destination, records the resulting
// locations, and falls through to a search near the first of them. A phrase
// is geocoded; a bare coordinate is reverse geocoded for its canonical name.
func (o *Orchestrator) dispatchLocation(ctx context.Context, intent *models.Intent, req *models.TurnRequest) (bool, error) {
	phrase := intent.Caption
	if intent.Params != nil && intent.Params.Near != "" {
		phrase = intent.Params.Near
	}
	hasCoordinate := req.Latitude != 0 || req.Longitude != 0
	if phrase == "" && !hasCoordinate && intent.DestinationID == uuid.Nil {
		return false, models.ErrMissingDestination
	}

	var marks []models.Placemark
	var err error
	if phrase != "" {
		marks, err = o.geocoder.Geocode(ctx, phrase)
	} else {
		marks, err = o.geocoder.ReverseGeocode(ctx, req.Latitude, req.Longitude)
	}
	if err != nil || len(marks) == 0 {
		if err != nil {
			o.report(ctx, err, "geocoding")
		}
		return false, models.ErrGeocodingFailed
	}

	intent.Locations = o.dedupeLocations(marks)

	// Search near the resolved destination.
	searchReq := req
	if len(intent.Locations) > 0 {
		near := *req
		near.Latitude = intent.Locations[0].Latitude
		near.Longitude = intent.Locations[0].Longitude
		searchReq = &near
	}
	return o.dispatchSearch(ctx, intent, searchReq)
}

// dispatchSearch runs the direct search, preceded by a recommendation call
// when the caption's own section matches the declared one. An empty
// recommendation list falls back to plain search rather than an empty turn.
func (o *Orchestrator) dispatchSearch(ctx context.Context, intent *models.Intent, req *models.TurnRequest) (bool, error) {
	degraded := false

	captionSection := o.classifier.Section(ctx, intent.Caption)
	if intent.Params != nil && captionSection == intent.Params.Section {
		recReq := places.RequestFrom(intent.Params, intent.Caption, req.Latitude, req.Longitude, o.cfg.RecommendRadius)
		recommended, err := o.placesSvc.Recommend(ctx, recReq)
		if err != nil {
			o.report(ctx, err, "recommend")
			observability.DegradedTurnsTotal.WithLabelValues("places").Inc()
			degraded = true
		} else {
			intent.RecommendedResults = recommended
		}
	}

	if len(intent.RecommendedResults) > 0 {
		return degraded, nil
	}

	searchReq := places.RequestFrom(intent.Params, intent.Caption, req.Latitude, req.Longitude, o.cfg.SearchRadius)
	results, err := o.placesSvc.Search(ctx, searchReq)
	if err != nil {
		return degraded, fmt.Errorf("search: %w", err)
	}
	intent.SearchResults = results
	return degraded, nil
}

// dispatchAutocomplete fetches raw suggestion lists, cached by prefix.
func (o *Orchestrator) dispatchAutocomplete(ctx context.Context, intent *models.Intent, req *models.TurnRequest) (bool, error) {
	if o.cache != nil {
		cached, err := o.cache.GetAutocomplete(ctx, intent.Caption)
		if err != nil {
			o.logger.Warn("autocomplete cache error", zap.Error(err))
		}
		if cached != nil {
			intent.SearchCandidates = cached
			return false, nil
		}
	}

	acReq := places.RequestFrom(intent.Params, intent.Caption, req.Latitude, req.Longitude, o.cfg.SearchRadius)
	candidates, err := o.placesSvc.Autocomplete(ctx, intent.Caption, acReq)
	if err != nil {
		return false, fmt.Errorf("autocomplete: %w", err)
	}
	intent.SearchCandidates = candidates

	if o.cache != nil {
		if err := o.cache.SetAutocomplete(ctx, intent.Caption, candidates); err != nil {
			o.logger.Warn("autocomplete cache set error", zap.Error(err))
		}
	}
	return false, nil
}

func (o *Orchestrator) dispatchAutocompleteTastes(ctx context.Context, intent *models.Intent) (bool, error) {
	candidates, err := o.placesSvc.AutocompleteTastes(ctx, intent.Caption)
	if err != nil {
		return false, fmt.Errorf("taste autocomplete: %w", err)
	}
	intent.TasteCandidates = candidates
	return false, nil
}

// reconcileIntent rebuilds every derived collection from the live intent
// and then rebuilds the lookup index. The index is never patched in place.
func (o *Orchestrator) reconcileIntent(conv *conversation, intent *models.Intent) {
	section := models.SectionTopPicks
	if intent.Params != nil {
		section = intent.Params.Section
	}

	model := conv.model
	if model == nil {
		model = recommender.Train(
			conv.collections.CachedTaste,
			conv.collections.CachedIndustry,
			conv.collections.CachedRecommendations,
			o.logger,
		)
		conv.model = model
	}

	conv.collections.Places = reconcile.PlaceViews(intent, section)
	conv.collections.Recommended = reconcile.RecommendedViews(intent, model, section)
	conv.collections.Related = reconcile.RelatedViews(intent, section)
	conv.collections.Locations = intent.Locations
	conv.index = resultindex.Rebuild(conv.collections)
}

func (o *Orchestrator) buildResponse(conv *conversation, intent *models.Intent, req *models.TurnRequest) *models.TurnResponse {
	section := models.SectionTopPicks
	if intent.Params != nil {
		section = intent.Params.Section
	}
	return &models.TurnResponse{
		Intent:      intent.Kind.String(),
		Caption:     intent.Caption,
		Section:     section,
		Params:      intent.Params,
		Places:      conv.collections.Places,
		Recommended: conv.collections.Recommended,
		Related:     conv.collections.Related,
		Candidates:  append(intent.SearchCandidates, intent.TasteCandidates...),
		Locations:   conv.collections.Locations,
		Source:      "pipeline",
		RequestID:   req.RequestID,
	}
}

// loadStoredRecords pulls the cached record groups and preference history
// once per conversation. Failures degrade ranking to uniform ratings and
// are reported, never propagated.
func (o *Orchestrator) loadStoredRecords(ctx context.Context, conv *conversation, conversationID string) {
	if conv.loaded || o.records == nil {
		return
	}
	conv.loaded = true

	groups := []struct {
		tag  models.GroupTag
		dest *[]models.CategoryResult
	}{
		{models.GroupTaste, &conv.collections.CachedTaste},
		{models.GroupCategory, &conv.collections.CachedIndustry},
		{models.GroupPlace, &conv.collections.CachedPlace},
	}
	for _, g := range groups {
		records, err := o.records.FetchGroup(ctx, conversationID, g.tag)
		if err != nil {
			o.report(ctx, err, "record store fetch "+string(g.tag))
			observability.DegradedTurnsTotal.WithLabelValues("store").Inc()
			continue
		}
		*g.dest = records
	}

	recs, err := o.records.FetchRecommendations(ctx, conversationID)
	if err != nil {
		o.report(ctx, err, "record store fetch recommendations")
		observability.DegradedTurnsTotal.WithLabelValues("store").Inc()
		return
	}
	conv.collections.CachedRecommendations = recs
}

func (o *Orchestrator) persistHistory(ctx context.Context, conv *conversation, conversationID string) {
	if o.records == nil {
		return
	}
	if err := o.records.StoreHistory(ctx, conversationID, conv.history.Snapshot()); err != nil {
		o.report(ctx, err, "store history")
	}
}

func (o *Orchestrator) report(ctx context.Context, err error, scope string) {
	if o.reporter != nil {
		o.reporter.Report(ctx, err, scope)
	}
}

func (o *Orchestrator) staleFallback(ctx context.Context, req *models.TurnRequest) *models.TurnResponse {
	if o.cache == nil {
		return nil
	}
	stale, err := o.cache.GetStaleResults(ctx, req)
	if err != nil || stale == nil {
		return nil
	}
	stale.Stale = true
	stale.Source = "stale_cache"
	return stale
}

func (o *Orchestrator) conversation(id string) *conversation {
	o.mu.RLock()
	conv, ok := o.conversations[id]
	o.mu.RUnlock()
	if ok {
		return conv
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if conv, ok = o.conversations[id]; ok {
		return conv
	}
	conv = &conversation{
		history:     NewIntentHistory(),
		collections: &models.ResultCollections{},
	}
	conv.index = resultindex.Rebuild(conv.collections)
	o.conversations[id] = conv
	return conv
}

func overrideKind(s string) *models.IntentKind {
	var k models.IntentKind
	switch s {
	case "search":
		k = models.IntentSearch
	case "place":
		k = models.IntentPlace
	case "location":
		k = models.IntentLocation
	case "autocomplete_search":
		k = models.IntentAutocompleteSearch
	case "autocomplete_tastes":
		k = models.IntentAutocompleteTastes
	default:
		return nil
	}
	return &k
}

// dedupeLocations keeps the first placemark per canonical name. Matching is
// case sensitive: "soho" and "SoHo" are distinct destinations. A placemark
// whose canonical name is itself a taxonomy category ("Coffee Shop") is a
// geocoder mistaking the query for a destination and is dropped.
func (o *Orchestrator) dedupeLocations(marks []models.Placemark) []models.LocationResult {
	var tax *taxonomy.Index
	if o.extractor != nil {
		tax = o.extractor.taxonomy
	}

	seen := make(map[string]struct{}, len(marks))
	out := make([]models.LocationResult, 0, len(marks))
	for _, m := range marks {
		name := geocode.CanonicalName(m)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		if tax != nil && len(tax.MatchCategories(name)) > 0 {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, models.NewLocationResult(name, m.Latitude, m.Longitude))
	}
	return out
}

func resultCount(resp *models.TurnResponse) int {
	return len(resp.Places) + len(resp.Recommended) + len(resp.Related) +
		len(resp.Candidates) + len(resp.Locations)
}

func sourcesHit(intent *models.Intent) int {
	n := 0
	if len(intent.SearchResults) > 0 || intent.SelectedDetails != nil {
		n++
	}
	if len(intent.RecommendedResults) > 0 {
		n++
	}
	if len(intent.RelatedResults) > 0 {
		n++
	}
	if len(intent.Locations) > 0 {
		n++
	}
	if len(intent.SearchCandidates) > 0 || len(intent.TasteCandidates) > 0 {
		n++
	}
	return n
}
