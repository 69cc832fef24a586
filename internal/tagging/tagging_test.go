package tagging

import (
	"reflect"
	"testing"
)

func newTestTagger() *CompositeTagger {
	gaz := NewWordSetGazetteer(
		[]string{"coffee shop", "restaurant", "museum"},
		DefaultTastes(),
		DefaultPlaceWords(),
	)
	lex := NewWordSetLexicon(nil, DefaultAdjectives())
	return NewCompositeTagger(gaz, lex)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"coffee near me", []string{"coffee", "near", "me"}},
		{"what's open?", []string{"what", "'", "s", "open", "?"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTagMergesPasses(t *testing.T) {
	tagger := newTestTagger()

	got := tagger.Tag("cozy coffee in Oakland")
	if len(got) != 4 {
		t.Fatalf("expected 4 tokens, got %d: %v", len(got), got)
	}

	if !got[0].Has(LabelTaste) {
		t.Errorf("cozy: want %s, got %v", LabelTaste, got[0].Labels)
	}
	if !got[0].Has(LabelAdjective) && !got[0].Has(LabelNoun) {
		t.Errorf("cozy: expected a lexical label, got %v", got[0].Labels)
	}
	if !got[1].Has(LabelCategory) {
		t.Errorf("coffee: want %s, got %v", LabelCategory, got[1].Labels)
	}
	if !got[2].Has(LabelNone) {
		t.Errorf("in: want %s, got %v", LabelNone, got[2].Labels)
	}
	if !got[3].Has(LabelPlaceName) {
		t.Errorf("Oakland: want %s, got %v", LabelPlaceName, got[3].Labels)
	}
}

func TestTagPunctuation(t *testing.T) {
	tagger := newTestTagger()

	got := tagger.Tag("coffee, please!")
	if len(got) != 4 {
		t.Fatalf("expected 4 tokens, got %d: %v", len(got), got)
	}
	if !got[1].IsPunctuation() || len(got[1].Labels) != 0 {
		t.Errorf("comma should be unlabeled punctuation, got %+v", got[1])
	}
	if !got[3].IsPunctuation() {
		t.Errorf("bang should be punctuation, got %+v", got[3])
	}
	if got[0].IsPunctuation() {
		t.Error("word token misreported as punctuation")
	}
}

func TestTagPlaceWordAndAdjective(t *testing.T) {
	tagger := newTestTagger()

	got := tagger.Tag("expensive rooftop bar")
	if !got[0].Has(LabelAdjective) {
		t.Errorf("expensive: want %s, got %v", LabelAdjective, got[0].Labels)
	}
	if !got[1].Has(LabelTaste) {
		t.Errorf("rooftop: want %s, got %v", LabelTaste, got[1].Labels)
	}
	if !got[2].Has(LabelPlace) {
		t.Errorf("bar: want %s, got %v", LabelPlace, got[2].Labels)
	}
}

func TestNilCollaborators(t *testing.T) {
	tagger := NewCompositeTagger(nil, nil)
	got := tagger.Tag("anything")
	if len(got) != 1 || !got[0].Has(LabelNone) {
		t.Errorf("nil collaborators should still yield NONE, got %v", got)
	}
}

func TestAddTastes(t *testing.T) {
	gaz := NewWordSetGazetteer(nil, nil, nil)
	if gaz.IsTaste("umami") {
		t.Fatal("unexpected taste before add")
	}
	gaz.AddTastes([]string{" Umami "})
	if !gaz.IsTaste("umami") {
		t.Error("expected taste after add")
	}
}

func TestMultiWordCategorySplit(t *testing.T) {
	gaz := NewWordSetGazetteer([]string{"Coffee Shop"}, nil, nil)
	for _, w := range []string{"coffee shop", "coffee", "shop"} {
		if !gaz.IsCategory(w) {
			t.Errorf("expected %q to be a category word", w)
		}
	}
}
