package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/taxonomy"
)

const testTaxonomyJSON = `{
	"13064": {"full_label": ["Dining and Drinking", "Pizza"]},
	"13032": {"full_label": ["Dining and Drinking", "Cafe"]},
	"13035": {"full_label": ["Dining and Drinking", "Coffee Shop"]},
	"17000": {"full_label": ["Retail", "Retail"]},
	"19000": {"full_label": ["Foursquare Places", "Synthetic"]}
}`

func testTaxonomy(t *testing.T) *taxonomy.Index {
	t.Helper()
	idx, err := taxonomy.Parse([]byte(testTaxonomyJSON), 2, zap.NewNop())
	if err != nil {
		t.Fatalf("parsing test taxonomy: %v", err)
	}
	t.Cleanup(idx.Close)
	return idx
}

type fakeTextClassifier struct {
	labels map[string]string
	err    error
}

func (f *fakeTextClassifier) Classify(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.labels[text], nil
}

type fakeDictionary struct {
	words map[string]bool
}

func (f *fakeDictionary) HasDefinition(word string) bool {
	return f.words[word]
}

type fakeReporter struct {
	mu     sync.Mutex
	scopes []string
}

func (f *fakeReporter) Report(ctx context.Context, err error, scope string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes = append(f.scopes, scope)
}

func (f *fakeReporter) reported() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scopes...)
}

func newTestClassifier(t *testing.T, tc TextClassifier, dict Dictionary, reporter ErrorReporter) *IntentClassifier {
	t.Helper()
	ic, err := NewIntentClassifier(testTaxonomy(t), tc, dict, reporter, 100, zap.NewNop())
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}
	return ic
}

func TestClassify_OverrideWins(t *testing.T) {
	ic := newTestClassifier(t, nil, nil, nil)

	override := models.IntentPlace
	got := ic.Classify("complete gibberish zzz", &override)
	if got != models.IntentPlace {
		t.Errorf("override should win, got %v", got)
	}
}

func TestClassify_EmptyCaption(t *testing.T) {
	ic := newTestClassifier(t, nil, nil, nil)

	if got := ic.Classify("", nil); got != models.IntentAutocompleteSearch {
		t.Errorf("empty caption should autocomplete, got %v", got)
	}
	if got := ic.Classify("   near soho", nil); got != models.IntentAutocompleteSearch {
		t.Errorf("empty prefix should autocomplete, got %v", got)
	}
}

func TestClassify_TaxonomyParentMatch(t *testing.T) {
	ic := newTestClassifier(t, nil, nil, nil)

	if got := ic.Classify("retail near soho", nil); got != models.IntentSearch {
		t.Errorf("taxonomy parent prefix should search, got %v", got)
	}
}

func TestClassify_PartialSubcategoryName(t *testing.T) {
	ic := newTestClassifier(t, nil, nil, nil)

	if got := ic.Classify("pizz", nil); got != models.IntentSearch {
		t.Errorf("partial subcategory name should search, got %v", got)
	}
	if got := ic.Classify("coffee", nil); got != models.IntentSearch {
		t.Errorf("word inside a subcategory name should search, got %v", got)
	}
	if got := ic.Classify("best pizza in town", nil); got != models.IntentAutocompleteSearch {
		t.Errorf("phrase longer than every subcategory name should autocomplete, got %v", got)
	}
}

func TestClassify_DictionaryHit(t *testing.T) {
	dict := &fakeDictionary{words: map[string]bool{"breakfast": true}}
	ic := newTestClassifier(t, nil, dict, nil)

	if got := ic.Classify("breakfast", nil); got != models.IntentSearch {
		t.Errorf("dictionary hit should search, got %v", got)
	}
	if got := ic.Classify("zxqwv", nil); got != models.IntentAutocompleteSearch {
		t.Errorf("unknown word should autocomplete, got %v", got)
	}
}

func TestSection_ExactTag(t *testing.T) {
	ic := newTestClassifier(t, nil, nil, nil)

	if got := ic.Section(context.Background(), "Food"); got != models.SectionFood {
		t.Errorf("exact tag should resolve directly, got %v", got)
	}
}

func TestSection_EmptyTitle(t *testing.T) {
	ic := newTestClassifier(t, nil, nil, nil)

	if got := ic.Section(context.Background(), "  "); got != models.SectionTopPicks {
		t.Errorf("empty title should default, got %v", got)
	}
}

func TestSection_ClassifierLabelCapitalized(t *testing.T) {
	tc := &fakeTextClassifier{labels: map[string]string{"espresso bar": "coffee"}}
	ic := newTestClassifier(t, tc, nil, nil)

	if got := ic.Section(context.Background(), "espresso bar"); got != models.SectionCoffee {
		t.Errorf("classifier label should capitalize onto the tag, got %v", got)
	}
}

func TestSection_UnknownLabelDefaults(t *testing.T) {
	tc := &fakeTextClassifier{labels: map[string]string{"quantum physics": "science"}}
	ic := newTestClassifier(t, tc, nil, nil)

	if got := ic.Section(context.Background(), "quantum physics"); got != models.SectionTopPicks {
		t.Errorf("unknown label should default, got %v", got)
	}
}

func TestSection_ClassifierErrorReportedNotPropagated(t *testing.T) {
	reporter := &fakeReporter{}
	tc := &fakeTextClassifier{err: errors.New("model offline")}
	ic := newTestClassifier(t, tc, nil, reporter)

	if got := ic.Section(context.Background(), "espresso bar"); got != models.SectionTopPicks {
		t.Errorf("classifier failure should default, got %v", got)
	}
	if len(reporter.reported()) != 1 {
		t.Errorf("classifier failure should be reported once, got %v", reporter.reported())
	}
}
