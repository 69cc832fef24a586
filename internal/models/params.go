package models

import "strings"

// Section is the coarse topical label attached to a query or category for
// default-result grouping.
type Section string

const (
	SectionFood        Section = "Food"
	SectionDrinks      Section = "Drinks"
	SectionCoffee      Section = "Coffee"
	SectionShopping    Section = "Shopping"
	SectionArts        Section = "Arts"
	SectionOutdoors    Section = "Outdoors"
	SectionSightseeing Section = "Sightseeing"
	SectionTrending    Section = "Trending places"
	SectionTopPicks    Section = "Popular places"
)

var sections = []Section{
	SectionFood, SectionDrinks, SectionCoffee, SectionShopping,
	SectionArts, SectionOutdoors, SectionSightseeing, SectionTrending,
	SectionTopPicks,
}

// SectionFromLabel maps a label onto a known section tag. The match is exact
// against the tag value, so classifier output must be capitalized first.
func SectionFromLabel(label string) (Section, bool) {
	for _, s := range sections {
		if string(s) == label {
			return s, true
		}
	}
	return SectionTopPicks, false
}

const (
	// MinPriceTier and MaxPriceTier bound the price scale of the search API.
	MinPriceTier = 1
	MaxPriceTier = 4

	// DefaultSearchRadius and DefaultRecommendRadius apply when the query
	// implies no radius of its own. NearbyRadius applies to "nearby"/"near me".
	DefaultSearchRadius    = 50000
	DefaultRecommendRadius = 20000
	NearbyRadius           = 1000

	DefaultResultLimit = 50
)

// StructuredParameters are the typed search parameters derived from one raw
// query. Zero values mean "unset": the caller's defaults apply.
type StructuredParameters struct {
	ParsedQuery   string              `json:"parsed_query"`
	Radius        int                 `json:"radius,omitempty"`
	MinPrice      int                 `json:"min_price,omitempty"`
	MaxPrice      int                 `json:"max_price,omitempty"`
	Near          string              `json:"near,omitempty"`
	OpenAt        string              `json:"open_at,omitempty"`
	OpenNow       bool                `json:"open_now,omitempty"`
	CategoryCodes []string            `json:"categories,omitempty"`
	Tags          map[string][]string `json:"tags,omitempty"`
	Section       Section             `json:"section"`
	Limit         int                 `json:"limit"`
}

// ClampPrices normalizes the price bounds so that, whenever both are set,
// MinPrice <= MaxPrice and both sit inside the provider's 1..4 scale. A query
// like "cheap but expensive" fires both rules with min > max; the minimum
// wins because it was the stronger, positively stated signal.
func (p *StructuredParameters) ClampPrices() {
	if p.MinPrice != 0 {
		p.MinPrice = clampTier(p.MinPrice)
	}
	if p.MaxPrice != 0 {
		p.MaxPrice = clampTier(p.MaxPrice)
	}
	if p.MinPrice != 0 && p.MaxPrice != 0 && p.MinPrice > p.MaxPrice {
		p.MaxPrice = p.MinPrice
	}
}

func clampTier(tier int) int {
	if tier < MinPriceTier {
		return MinPriceTier
	}
	if tier > MaxPriceTier {
		return MaxPriceTier
	}
	return tier
}

// EffectiveQuery returns the parsed query, or the caption when parsing
// stripped every token.
func (p *StructuredParameters) EffectiveQuery(caption string) string {
	if p == nil || strings.TrimSpace(p.ParsedQuery) == "" {
		return caption
	}
	return p.ParsedQuery
}
