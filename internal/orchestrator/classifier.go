package orchestrator

import (
	"context"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/taxonomy"
)

// TextClassifier is the trained model used only for section-label fallback.
// Failures are mapped to a default section, never propagated.
type TextClassifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Dictionary reports whether a term has a known definition. Used as the last
// positive signal before falling back to autocomplete.
type Dictionary interface {
	HasDefinition(word string) bool
}

// ErrorReporter is the fire-and-forget analytics collaborator.
type ErrorReporter interface {
	Report(ctx context.Context, err error, context string)
}

// IntentClassifier decides which intent kind a raw caption maps to, and
// resolves section labels for captions and categories.
type IntentClassifier struct {
	taxonomy   *taxonomy.Index
	classifier TextClassifier
	dictionary Dictionary
	reporter   ErrorReporter
	sections   *ristretto.Cache[string, string]
	logger     *zap.Logger
}

func NewIntentClassifier(tax *taxonomy.Index, tc TextClassifier, dict Dictionary, reporter ErrorReporter, cacheEntries int64, logger *zap.Logger) (*IntentClassifier, error) {
	if cacheEntries <= 0 {
		cacheEntries = 10000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: cacheEntries * 10,
		MaxCost:     cacheEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &IntentClassifier{
		taxonomy:   tax,
		classifier: tc,
		dictionary: dict,
		reporter:   reporter,
		sections:   cache,
		logger:     logger,
	}, nil
}

// Classify maps a caption to an intent kind. An explicit override always
// wins. Otherwise the prefix before "near" decides: a taxonomy parent or
// subcategory match, or a dictionary hit, means the caption names something
// searchable; anything else is treated as a partial query still being typed.
// Empty captions never error.
func (ic *IntentClassifier) Classify(caption string, override *models.IntentKind) models.IntentKind {
	if override != nil {
		return *override
	}

	prefix := caption
	if idx := strings.Index(strings.ToLower(caption), "near"); idx >= 0 {
		prefix = caption[:idx]
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return models.IntentAutocompleteSearch
	}

	if ic.taxonomy != nil {
		if ic.taxonomy.HasParent(capitalizeWords(prefix)) {
			return models.IntentSearch
		}
		if ic.taxonomy.AnySubcategoryContains(caption) {
			return models.IntentSearch
		}
	}
	if ic.dictionary != nil && ic.dictionary.HasDefinition(strings.ToLower(prefix)) {
		return models.IntentSearch
	}

	return models.IntentAutocompleteSearch
}

// Section resolves a coarse section tag for a title. Exact tag matches skip
// the model; empty titles take the default. Model output is capitalized and
// mapped back onto the known tags; unrecognized or failed output defaults.
func (ic *IntentClassifier) Section(ctx context.Context, title string) models.Section {
	if strings.TrimSpace(title) == "" {
		return models.SectionTopPicks
	}
	if s, ok := models.SectionFromLabel(title); ok {
		return s
	}

	if cached, ok := ic.sections.Get(title); ok {
		if s, ok := models.SectionFromLabel(cached); ok {
			return s
		}
	}

	if ic.classifier == nil {
		return models.SectionTopPicks
	}
	label, err := ic.classifier.Classify(ctx, title)
	if err != nil {
		if ic.reporter != nil {
			ic.reporter.Report(ctx, err, "section classification")
		}
		ic.logger.Warn("section classifier failed, using default",
			zap.String("title", title),
			zap.Error(err),
		)
		return models.SectionTopPicks
	}

	label = capitalizeWords(label)
	section, ok := models.SectionFromLabel(label)
	if !ok {
		return models.SectionTopPicks
	}
	ic.sections.Set(title, label, 1)
	return section
}

// capitalizeWords upper-cases the first rune of every word, leaving the rest
// untouched.
func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
