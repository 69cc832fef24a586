package tagging

import "strings"

// WordSetGazetteer is a Gazetteer over three plain word sets, all keyed
// lower case.
type WordSetGazetteer struct {
	categories map[string]struct{}
	tastes     map[string]struct{}
	places     map[string]struct{}
}

// NewWordSetGazetteer builds a gazetteer from word lists. Multi-word category
// names also contribute their individual words, so "coffee shop" makes both
// "coffee" and "shop" category words.
func NewWordSetGazetteer(categories, tastes, places []string) *WordSetGazetteer {
	g := &WordSetGazetteer{
		categories: make(map[string]struct{}),
		tastes:     make(map[string]struct{}),
		places:     make(map[string]struct{}),
	}
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		g.categories[c] = struct{}{}
		for _, w := range strings.Fields(c) {
			g.categories[w] = struct{}{}
		}
	}
	for _, t := range tastes {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			g.tastes[t] = struct{}{}
		}
	}
	for _, p := range places {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			g.places[p] = struct{}{}
		}
	}
	return g
}

func (g *WordSetGazetteer) IsCategory(word string) bool {
	_, ok := g.categories[word]
	return ok
}

func (g *WordSetGazetteer) IsTaste(word string) bool {
	_, ok := g.tastes[word]
	return ok
}

func (g *WordSetGazetteer) IsPlaceWord(word string) bool {
	_, ok := g.places[word]
	return ok
}

// AddTastes extends the taste vocabulary, typically from a user's stored
// taste history.
func (g *WordSetGazetteer) AddTastes(tastes []string) {
	for _, t := range tastes {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			g.tastes[t] = struct{}{}
		}
	}
}

// DefaultPlaceWords are generic place-kind nouns that signal a place intent
// without naming a taxonomy category.
func DefaultPlaceWords() []string {
	return []string{
		"place", "spot", "venue", "store", "shop", "market",
		"restaurant", "bar", "cafe", "club", "hotel", "park",
		"museum", "gallery", "theater", "beach", "garden",
	}
}

// DefaultTastes is the seed taste vocabulary used before any user history
// is loaded.
func DefaultTastes() []string {
	return []string{
		"cozy", "romantic", "trendy", "casual", "quiet", "lively",
		"authentic", "spicy", "sweet", "fresh", "organic", "vegan",
		"vegetarian", "gluten-free", "craft", "artisanal", "rooftop",
		"outdoor", "family-friendly", "dog-friendly", "late-night",
	}
}

// WordSetLexicon is a Lexicon over two plain word sets.
type WordSetLexicon struct {
	nouns      map[string]struct{}
	adjectives map[string]struct{}
}

func NewWordSetLexicon(nouns, adjectives []string) *WordSetLexicon {
	l := &WordSetLexicon{
		nouns:      make(map[string]struct{}),
		adjectives: make(map[string]struct{}),
	}
	for _, n := range nouns {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			l.nouns[n] = struct{}{}
		}
	}
	for _, a := range adjectives {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			l.adjectives[a] = struct{}{}
		}
	}
	return l
}

func (l *WordSetLexicon) IsNoun(word string) bool {
	if _, ok := l.nouns[word]; ok {
		return true
	}
	// Unknown non-adjective words default to noun, the dominant class in
	// place queries.
	if _, ok := l.adjectives[word]; ok {
		return false
	}
	return len(word) > 2 && !isStopWord(word)
}

func (l *WordSetLexicon) IsAdjective(word string) bool {
	_, ok := l.adjectives[word]
	return ok
}

// DefaultAdjectives is the seed adjective list for the lexical pass.
func DefaultAdjectives() []string {
	return []string{
		"good", "great", "best", "nice", "new", "old", "cheap",
		"expensive", "fancy", "cool", "hot", "cold", "big", "small",
		"open", "close", "closed", "near", "nearby", "local", "popular",
		"famous", "hidden", "quiet", "busy", "italian", "french",
		"mexican", "chinese", "japanese", "thai", "indian", "korean",
		"vietnamese", "greek", "spanish", "american",
	}
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "at": {}, "but": {},
	"by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {},
	"me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "with": {}, "not": {},
	"now": {}, "near": {}, "some": {}, "want": {}, "find": {},
	"show": {}, "where": {}, "what": {},
}

func isStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
