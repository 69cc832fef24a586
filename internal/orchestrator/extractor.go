package orchestrator

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/observability"
	"github.com/knowplaces/placeflow/internal/tagging"
	"github.com/knowplaces/placeflow/internal/taxonomy"
)

// ParameterExtractor derives structured search parameters from a raw caption
// and its tag annotations. Extraction never fails on well-formed input:
// absence of a signal yields a default, not an error.
type ParameterExtractor struct {
	taxonomy *taxonomy.Index
	tagger   tagging.Tagger
}

func NewParameterExtractor(tax *taxonomy.Index, tagger tagging.Tagger) *ParameterExtractor {
	return &ParameterExtractor{taxonomy: tax, tagger: tagger}
}

// labels that keep a token in the parsed query. A PLACE token survives only
// when it is not also a proper place name; the name itself belongs to the
// near clause, not the query text.
func keepToken(tl tagging.TokenLabels) bool {
	if tl.IsPunctuation() {
		return true
	}
	if tl.Has(tagging.LabelPlace) {
		return !tl.Has(tagging.LabelPlaceName)
	}
	return tl.Has(tagging.LabelNone) ||
		tl.Has(tagging.LabelTaste) ||
		tl.Has(tagging.LabelCategory) ||
		tl.Has(tagging.LabelNoun) ||
		tl.Has(tagging.LabelAdjective)
}

// Extract builds StructuredParameters for one caption. All substring tests
// are case-insensitive against the raw caption.
func (pe *ParameterExtractor) Extract(caption string) *models.StructuredParameters {
	start := time.Now()
	lower := strings.ToLower(caption)

	params := &models.StructuredParameters{
		Limit:   models.DefaultResultLimit,
		Section: models.SectionTopPicks,
	}

	if strings.Contains(lower, "nearby") || strings.Contains(lower, "near me") {
		params.Radius = models.NearbyRadius
	}

	notExpensive := strings.Contains(lower, "not expensive") || strings.Contains(lower, "not that expensive")
	if strings.Contains(lower, "expensive") && !notExpensive {
		params.MinPrice = 3
	}
	if strings.Contains(lower, "cheap") {
		params.MaxPrice = 2
	}
	if notExpensive {
		params.MaxPrice = 3
	}
	params.ClampPrices()

	if strings.Contains(lower, "open now") {
		params.OpenNow = true
	}

	params.Near = nearPhrase(caption, lower)

	tagged := pe.tagger.Tag(caption)
	params.Tags = mergeTags(tagged)
	params.ParsedQuery = buildParsedQuery(caption, tagged)
	params.CategoryCodes = pe.matchCategories(tagged)

	observability.CategoryMatchDuration.Observe(time.Since(start).Seconds())
	return params
}

// nearPhrase returns everything after the last "near", trimmed and
// lower-cased. The untrimmed remainder must end in a letter, whitespace, or
// punctuation; anything else means the match cut a token in half.
func nearPhrase(caption, lower string) string {
	idx := strings.LastIndex(lower, "near")
	if idx < 0 {
		return ""
	}
	rest := caption[idx+len("near"):]
	if rest == "" {
		return ""
	}
	runes := []rune(rest)
	last := runes[len(runes)-1]
	if !unicode.IsLetter(last) && !unicode.IsSpace(last) && !unicode.IsPunct(last) {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(rest))
}

// mergeTags folds the token stream into a token -> labels map. A token
// appearing more than once accumulates each occurrence's labels.
func mergeTags(tagged []tagging.TokenLabels) map[string][]string {
	tags := make(map[string][]string)
	for _, tl := range tagged {
		if tl.IsPunctuation() {
			continue
		}
		existing := tags[tl.Token]
		for _, label := range tl.Labels {
			if !containsString(existing, label) {
				existing = append(existing, label)
			}
		}
		tags[tl.Token] = existing
	}
	return tags
}

// buildParsedQuery keeps the tokens that carry query meaning, in original
// order, then drops the near clause. An empty result falls back to the raw
// caption unmodified.
func buildParsedQuery(caption string, tagged []tagging.TokenLabels) string {
	var kept []string
	for _, tl := range tagged {
		if keepToken(tl) {
			kept = append(kept, tl.Token)
		}
	}
	joined := strings.Join(kept, " ")

	if idx := strings.Index(strings.ToLower(joined), "near"); idx >= 0 {
		joined = joined[:idx]
	}
	joined = strings.TrimSpace(joined)
	if joined == "" {
		return caption
	}
	return joined
}

// matchCategories runs taxonomy matching for every tagged token and for
// adjacent token pairs, so multi-word category names still match, and unions
// the codes.
func (pe *ParameterExtractor) matchCategories(tagged []tagging.TokenLabels) []string {
	if pe.taxonomy == nil || len(tagged) == 0 {
		return nil
	}

	var tokens []string
	for _, tl := range tagged {
		if tl.IsPunctuation() {
			continue
		}
		tokens = append(tokens, tl.Token)
	}

	union := make(map[string]struct{})
	for i, token := range tokens {
		for code := range pe.taxonomy.MatchCategories(token) {
			union[code] = struct{}{}
		}
		if i+1 < len(tokens) {
			for code := range pe.taxonomy.MatchCategories(token + " " + tokens[i+1]) {
				union[code] = struct{}{}
			}
		}
	}
	if len(union) == 0 {
		return nil
	}

	codes := make([]string, 0, len(union))
	for code := range union {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
