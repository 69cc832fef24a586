// Package tagging assigns coarse labels to query tokens. Two independent
// passes run over the same token stream: a gazetteer pass that knows the
// category taxonomy and taste vocabulary, and a lexical pass that knows word
// classes. Their labels are merged per token, so a token can carry labels
// from both.
package tagging

import (
	"strings"
	"unicode"
)

// Labels produced by the taggers.
const (
	LabelNone      = "NONE"
	LabelTaste     = "TASTE"
	LabelCategory  = "CATEGORY"
	LabelPlace     = "PLACE"
	LabelPlaceName = "PlaceName"
	LabelNoun      = "Noun"
	LabelAdjective = "Adjective"
)

// Tagger labels each token of a text. The returned slice preserves token
// order; labels per token are in pass order.
type Tagger interface {
	Tag(text string) []TokenLabels
}

// TokenLabels is one token with every label the tagging passes assigned it.
type TokenLabels struct {
	Token  string
	Labels []string
}

// Has reports whether the token carries the given label.
func (t TokenLabels) Has(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// IsPunctuation reports whether the token consists only of punctuation or
// symbol runes.
func (t TokenLabels) IsPunctuation() bool {
	if t.Token == "" {
		return false
	}
	for _, r := range t.Token {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// Gazetteer answers membership questions for the vocabulary passes.
type Gazetteer interface {
	// IsCategory reports whether the word names a known place category.
	IsCategory(word string) bool
	// IsTaste reports whether the word is a known taste descriptor.
	IsTaste(word string) bool
	// IsPlaceWord reports whether the word commonly names a place kind.
	IsPlaceWord(word string) bool
}

// Lexicon answers word-class questions for the lexical pass.
type Lexicon interface {
	IsNoun(word string) bool
	IsAdjective(word string) bool
}

// CompositeTagger runs the gazetteer pass and the lexical pass and merges
// their labels token by token.
type CompositeTagger struct {
	gazetteer Gazetteer
	lexicon   Lexicon
}

// NewCompositeTagger builds the default tagger. Either collaborator may be
// nil; the corresponding pass contributes no labels.
func NewCompositeTagger(gazetteer Gazetteer, lexicon Lexicon) *CompositeTagger {
	return &CompositeTagger{gazetteer: gazetteer, lexicon: lexicon}
}

// Tag tokenizes text and labels every token. Punctuation tokens come through
// with no labels; word tokens always receive at least one gazetteer label,
// LabelNone when the vocabulary knows nothing about them.
func (c *CompositeTagger) Tag(text string) []TokenLabels {
	tokens := Tokenize(text)
	out := make([]TokenLabels, 0, len(tokens))
	for _, tok := range tokens {
		tl := TokenLabels{Token: tok}
		if tl.IsPunctuation() {
			out = append(out, tl)
			continue
		}
		tl.Labels = append(tl.Labels, c.gazetteerLabel(tok))
		tl.Labels = append(tl.Labels, c.lexicalLabels(tok)...)
		out = append(out, tl)
	}
	return out
}

func (c *CompositeTagger) gazetteerLabel(token string) string {
	if c.gazetteer == nil {
		return LabelNone
	}
	word := strings.ToLower(token)
	switch {
	case c.gazetteer.IsCategory(word):
		return LabelCategory
	case c.gazetteer.IsTaste(word):
		return LabelTaste
	case c.gazetteer.IsPlaceWord(word):
		return LabelPlace
	default:
		return LabelNone
	}
}

func (c *CompositeTagger) lexicalLabels(token string) []string {
	var labels []string
	if isCapitalized(token) {
		labels = append(labels, LabelPlaceName)
	}
	if c.lexicon == nil {
		return labels
	}
	word := strings.ToLower(token)
	if c.lexicon.IsAdjective(word) {
		labels = append(labels, LabelAdjective)
	} else if c.lexicon.IsNoun(word) {
		labels = append(labels, LabelNoun)
	}
	return labels
}

func isCapitalized(token string) bool {
	for _, r := range token {
		return unicode.IsUpper(r)
	}
	return false
}

// Tokenize splits text into word and punctuation tokens. Consecutive
// punctuation runes form one token each; whitespace separates and is
// discarded.
func Tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return tokens
}
