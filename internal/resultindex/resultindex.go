// Package resultindex derives O(1) lookup maps over the orchestrator's
// result collections. The index is never the source of truth: it is
// invalidated and fully rebuilt after every collection mutation, never
// patched incrementally.
package resultindex

import (
	"github.com/google/uuid"

	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/observability"
)

// LookupIndex is one immutable snapshot of the lookup maps. Callers must
// serialize collection mutations and rebuilds through a single owner; a
// rebuild is synchronous relative to its caller.
type LookupIndex struct {
	recommendedByID map[uuid.UUID]models.PlaceView
	placeByID       map[uuid.UUID]models.PlaceView
	relatedByID     map[uuid.UUID]models.PlaceView

	byFsqID map[string]models.PlaceView

	categoryByID map[uuid.UUID]models.CategoryResult
	tasteByID    map[uuid.UUID]models.CategoryResult
	cachedByID   map[uuid.UUID]models.CategoryResult

	cachedViews map[uuid.UUID][]models.PlaceView
}

// Rebuild constructs a fresh index over the collections. O(n) in total
// result count.
func Rebuild(c *models.ResultCollections) *LookupIndex {
	idx := &LookupIndex{
		recommendedByID: make(map[uuid.UUID]models.PlaceView, len(c.Recommended)),
		placeByID:       make(map[uuid.UUID]models.PlaceView, len(c.Places)),
		relatedByID:     make(map[uuid.UUID]models.PlaceView, len(c.Related)),
		byFsqID:         make(map[string]models.PlaceView, len(c.Places)+len(c.Recommended)),
		categoryByID:    make(map[uuid.UUID]models.CategoryResult),
		tasteByID:       make(map[uuid.UUID]models.CategoryResult, len(c.Taste)),
		cachedByID:      make(map[uuid.UUID]models.CategoryResult),
		cachedViews:     make(map[uuid.UUID][]models.PlaceView),
	}

	for _, v := range c.Recommended {
		idx.recommendedByID[v.ID] = v
	}
	for _, v := range c.Places {
		idx.placeByID[v.ID] = v
	}
	for _, v := range c.Related {
		idx.relatedByID[v.ID] = v
	}

	// Place results first, then recommended overwrite on shared external
	// ids: recommended carry the richer record. Related views only fill
	// ids no other group claimed.
	for _, v := range c.Places {
		if id := v.FsqID(); id != "" {
			idx.byFsqID[id] = v
		}
	}
	for _, v := range c.Recommended {
		if id := v.FsqID(); id != "" {
			idx.byFsqID[id] = v
		}
	}
	for _, v := range c.Related {
		if id := v.FsqID(); id != "" {
			if _, ok := idx.byFsqID[id]; !ok {
				idx.byFsqID[id] = v
			}
		}
	}

	for _, cat := range c.Industry {
		indexCategory(idx.categoryByID, cat)
	}
	for _, cat := range c.Taste {
		idx.tasteByID[cat.ID] = cat
	}

	for _, group := range [][]models.CategoryResult{c.CachedIndustry, c.CachedPlace, c.CachedTaste} {
		for _, cat := range group {
			idx.cachedByID[cat.ID] = cat
			if len(cat.Views) > 0 {
				idx.cachedViews[cat.ID] = cat.Views
			}
		}
	}

	observability.IndexRebuildsTotal.Inc()
	return idx
}

// indexCategory registers a category and its transitive children.
func indexCategory(m map[uuid.UUID]models.CategoryResult, cat models.CategoryResult) {
	m[cat.ID] = cat
	for _, child := range cat.Children {
		indexCategory(m, child)
	}
}

// ViewByID resolves a local result id, searching recommended, place, then
// related views; the first match wins.
func (idx *LookupIndex) ViewByID(id uuid.UUID) (models.PlaceView, bool) {
	if v, ok := idx.recommendedByID[id]; ok {
		return v, true
	}
	if v, ok := idx.placeByID[id]; ok {
		return v, true
	}
	if v, ok := idx.relatedByID[id]; ok {
		return v, true
	}
	return models.PlaceView{}, false
}

// ViewByFsqID resolves an external place id.
func (idx *LookupIndex) ViewByFsqID(fsqID string) (models.PlaceView, bool) {
	v, ok := idx.byFsqID[fsqID]
	return v, ok
}

// CategoryByID resolves an industry category, including transitive children.
func (idx *LookupIndex) CategoryByID(id uuid.UUID) (models.CategoryResult, bool) {
	c, ok := idx.categoryByID[id]
	return c, ok
}

// TasteByID resolves a taste category.
func (idx *LookupIndex) TasteByID(id uuid.UUID) (models.CategoryResult, bool) {
	c, ok := idx.tasteByID[id]
	return c, ok
}

// CachedViewsByID resolves the place views of a cached category. A cold
// record loaded from persistent storage carries no pre-built views; a
// minimal view is synthesized from the category so consumers always get
// something renderable.
func (idx *LookupIndex) CachedViewsByID(id uuid.UUID) ([]models.PlaceView, bool) {
	if views, ok := idx.cachedViews[id]; ok {
		return views, true
	}
	cat, ok := idx.cachedByID[id]
	if !ok {
		return nil, false
	}
	return []models.PlaceView{{
		ID:       uuid.New(),
		ParentID: cat.ID,
		Title:    cat.ParentCategory,
		Rating:   cat.Rating,
		Section:  cat.Section,
		List:     cat.List,
	}}, true
}

// CachedCategoryByID resolves a cached category record of any group.
func (idx *LookupIndex) CachedCategoryByID(id uuid.UUID) (models.CategoryResult, bool) {
	c, ok := idx.cachedByID[id]
	return c, ok
}
