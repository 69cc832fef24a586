// Package reconcile merges the heterogeneous result sets of one intent into
// deduplicated, ranked place views.
package reconcile

import (
	"sort"

	"github.com/google/uuid"

	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/recommender"
)

// PlaceViews formats the direct search side of an intent. A selected place
// with resolved details short-circuits to that single view; otherwise every
// search result not already covered by a details response is formatted.
func PlaceViews(intent *models.Intent, section models.Section) []models.PlaceView {
	if intent.SelectedDetails != nil {
		return []models.PlaceView{detailsView(intent.SelectedDetails, 0, section)}
	}

	covered := make(map[string]*models.DetailsResult, len(intent.DetailsResults))
	for i := range intent.DetailsResults {
		covered[intent.DetailsResults[i].FsqID] = &intent.DetailsResults[i]
	}

	views := make([]models.PlaceView, 0, len(intent.SearchResults))
	for i := range intent.SearchResults {
		sr := intent.SearchResults[i]
		if d, ok := covered[sr.FsqID]; ok {
			views = append(views, detailsView(d, i, section))
			continue
		}
		views = append(views, models.PlaceView{
			ID:      uuid.New(),
			Index:   i,
			Title:   sr.Name,
			Section: section,
			Place:   &intent.SearchResults[i],
		})
	}
	return views
}

// RecommendedViews formats every recommended result with a model-predicted
// rating and sorts by rating. Without a trained model every rating is 1 and
// the sort preserves response order.
func RecommendedViews(intent *models.Intent, model *recommender.Model, section models.Section) []models.PlaceView {
	views := make([]models.PlaceView, 0, len(intent.RecommendedResults))
	for i := range intent.RecommendedResults {
		rec := intent.RecommendedResults[i]
		views = append(views, models.PlaceView{
			ID:          uuid.New(),
			Index:       i,
			Title:       rec.Name,
			Rating:      model.Rate(rec),
			Section:     section,
			Recommended: &intent.RecommendedResults[i],
		})
	}
	SortByRating(views)
	return views
}

// RelatedViews mirrors recommended formatting for the related-place
// expansion, except that a related entry matching the currently selected
// place is formatted from its full details rather than the related stub.
func RelatedViews(intent *models.Intent, section models.Section) []models.PlaceView {
	var selectedID string
	if intent.SelectedSearchResult != nil {
		selectedID = intent.SelectedSearchResult.FsqID
	}

	views := make([]models.PlaceView, 0, len(intent.RelatedResults))
	for i := range intent.RelatedResults {
		rel := intent.RelatedResults[i]
		if selectedID != "" && rel.FsqID == selectedID && intent.SelectedDetails != nil {
			views = append(views, detailsView(intent.SelectedDetails, i, section))
			continue
		}
		views = append(views, models.PlaceView{
			ID:      uuid.New(),
			Index:   i,
			Title:   rel.Name,
			Rating:  1,
			Section: section,
			Place:   &intent.RelatedResults[i],
		})
	}
	SortByRating(views)
	return views
}

// SortByRating orders views by rating descending, ties broken by original
// response index ascending. Fan-out completion order must never leak into
// presentation order, so this sort is always re-applied after collection.
func SortByRating(views []models.PlaceView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Rating != views[j].Rating {
			return views[i].Rating > views[j].Rating
		}
		return views[i].Index < views[j].Index
	})
}

func detailsView(d *models.DetailsResult, index int, section models.Section) models.PlaceView {
	return models.PlaceView{
		ID:      uuid.New(),
		Index:   index,
		Title:   d.SearchResult.Name,
		Rating:  d.Rating,
		Section: section,
		Place:   &d.SearchResult,
		Details: d,
	}
}
