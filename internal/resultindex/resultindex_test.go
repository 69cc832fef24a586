package resultindex

import (
	"testing"

	"github.com/google/uuid"

	"github.com/knowplaces/placeflow/internal/models"
)

func view(fsqID string) models.PlaceView {
	return models.PlaceView{
		ID:    uuid.New(),
		Title: fsqID,
		Place: &models.SearchResult{FsqID: fsqID, Name: fsqID},
	}
}

func recommendedView(fsqID string) models.PlaceView {
	return models.PlaceView{
		ID:          uuid.New(),
		Title:       fsqID,
		Recommended: &models.RecommendedResult{FsqID: fsqID, Name: fsqID},
	}
}

func TestViewByID_PriorityOrder(t *testing.T) {
	rec := recommendedView("shared")
	place := view("shared")
	rel := view("other")

	c := &models.ResultCollections{
		Recommended: []models.PlaceView{rec},
		Places:      []models.PlaceView{place},
		Related:     []models.PlaceView{rel},
	}
	idx := Rebuild(c)

	got, ok := idx.ViewByID(rec.ID)
	if !ok || got.Recommended == nil {
		t.Error("recommended id should resolve to the recommended view")
	}
	got, ok = idx.ViewByID(place.ID)
	if !ok || got.Place == nil {
		t.Error("place id should resolve to the place view")
	}
	got, ok = idx.ViewByID(rel.ID)
	if !ok {
		t.Error("related id should resolve")
	}
	if _, ok := idx.ViewByID(uuid.New()); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestViewByFsqID_RecommendedOverwritesPlace(t *testing.T) {
	place := view("shared")
	rec := recommendedView("shared")

	idx := Rebuild(&models.ResultCollections{
		Places:      []models.PlaceView{place},
		Recommended: []models.PlaceView{rec},
	})

	got, ok := idx.ViewByFsqID("shared")
	if !ok {
		t.Fatal("shared fsq id should resolve")
	}
	if got.Recommended == nil {
		t.Error("recommended view should take precedence on shared fsq id")
	}
}

func TestCategoryByID_IncludesTransitiveChildren(t *testing.T) {
	grandchild := models.CategoryResult{ID: uuid.New(), ParentCategory: "Espresso Bar"}
	child := models.CategoryResult{ID: uuid.New(), ParentCategory: "Cafe", Children: []models.CategoryResult{grandchild}}
	root := models.CategoryResult{ID: uuid.New(), ParentCategory: "Dining", Children: []models.CategoryResult{child}}

	idx := Rebuild(&models.ResultCollections{Industry: []models.CategoryResult{root}})

	for _, id := range []uuid.UUID{root.ID, child.ID, grandchild.ID} {
		if _, ok := idx.CategoryByID(id); !ok {
			t.Errorf("category %s should resolve", id)
		}
	}
}

func TestTasteByID(t *testing.T) {
	taste := models.CategoryResult{ID: uuid.New(), ParentCategory: "spicy"}
	idx := Rebuild(&models.ResultCollections{Taste: []models.CategoryResult{taste}})

	if _, ok := idx.TasteByID(taste.ID); !ok {
		t.Error("taste id should resolve")
	}
}

func TestCachedViews_SyntheticFallback(t *testing.T) {
	warm := models.CategoryResult{
		ID:             uuid.New(),
		ParentCategory: "Coffee",
		Views:          []models.PlaceView{view("a"), view("b")},
	}
	cold := models.CategoryResult{
		ID:             uuid.New(),
		ParentCategory: "Bakery",
		Rating:         2.5,
		Section:        models.SectionFood,
	}

	idx := Rebuild(&models.ResultCollections{
		CachedIndustry: []models.CategoryResult{warm},
		CachedPlace:    []models.CategoryResult{cold},
	})

	views, ok := idx.CachedViewsByID(warm.ID)
	if !ok || len(views) != 2 {
		t.Errorf("warm cached category should return stored views, got %d", len(views))
	}

	views, ok = idx.CachedViewsByID(cold.ID)
	if !ok || len(views) != 1 {
		t.Fatalf("cold cached category should synthesize one view, got %d", len(views))
	}
	if views[0].Title != "Bakery" || views[0].ParentID != cold.ID || views[0].Rating != 2.5 {
		t.Errorf("synthesized view should mirror the category record, got %+v", views[0])
	}
}

func TestRebuild_NoStaleEntries(t *testing.T) {
	a := view("a")
	b := view("b")

	c := &models.ResultCollections{Places: []models.PlaceView{a, b}}
	idx := Rebuild(c)
	if _, ok := idx.ViewByID(b.ID); !ok {
		t.Fatal("b should resolve before removal")
	}

	c.Places = []models.PlaceView{a}
	idx = Rebuild(c)
	if _, ok := idx.ViewByID(b.ID); ok {
		t.Error("removed id must not survive a rebuild")
	}
	if _, ok := idx.ViewByFsqID("b"); ok {
		t.Error("removed fsq id must not survive a rebuild")
	}
	if _, ok := idx.ViewByID(a.ID); !ok {
		t.Error("retained id must still resolve")
	}
}

func TestViewByFsqID_RelatedFillsOnlyUnclaimedIDs(t *testing.T) {
	place := view("shared")
	relShared := view("shared")
	relOnly := view("lone")

	idx := Rebuild(&models.ResultCollections{
		Places:  []models.PlaceView{place},
		Related: []models.PlaceView{relShared, relOnly},
	})

	got, ok := idx.ViewByFsqID("shared")
	if !ok {
		t.Fatal("shared fsq id should resolve")
	}
	if got.ID != place.ID {
		t.Error("place view should win over a related view on shared fsq id")
	}

	got, ok = idx.ViewByFsqID("lone")
	if !ok {
		t.Fatal("related-only fsq id should resolve")
	}
	if got.ID != relOnly.ID {
		t.Error("unclaimed fsq id should resolve to the related view")
	}
}

func TestRebuild_EveryIDResolvable(t *testing.T) {
	c := &models.ResultCollections{
		Places:      []models.PlaceView{view("p1"), view("p2")},
		Recommended: []models.PlaceView{recommendedView("r1")},
		Related:     []models.PlaceView{view("l1")},
	}
	idx := Rebuild(c)

	for _, group := range [][]models.PlaceView{c.Places, c.Recommended, c.Related} {
		for _, v := range group {
			if _, ok := idx.ViewByID(v.ID); !ok {
				t.Errorf("id %s should resolve after rebuild", v.ID)
			}
			if _, ok := idx.ViewByFsqID(v.FsqID()); !ok {
				t.Errorf("fsq id %s should resolve after rebuild", v.FsqID())
			}
		}
	}
}
