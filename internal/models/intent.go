package models

import "github.com/google/uuid"

type IntentKind int

const (
	IntentSearch IntentKind = iota
	IntentPlace
	IntentLocation
	IntentAutocompleteSearch
	IntentAutocompleteTastes
)

func (k IntentKind) String() string {
	switch k {
	case IntentSearch:
		return "search"
	case IntentPlace:
		return "place"
	case IntentLocation:
		return "location"
	case IntentAutocompleteSearch:
		return "autocomplete_search"
	case IntentAutocompleteTastes:
		return "autocomplete_tastes"
	default:
		return "unknown"
	}
}

// Intent is one classified, parameterized user turn. Instances are owned
// exclusively by the history of the conversation that created them; the
// orchestrator replaces an intent wholesale (pop-then-push) instead of
// mutating one in place, so every history entry stays a snapshot.
type Intent struct {
	ID      uuid.UUID
	Caption string
	Kind    IntentKind

	SelectedSearchResult *SearchResult
	SelectedDetails      *DetailsResult

	SearchResults      []SearchResult
	RecommendedResults []RecommendedResult
	RelatedResults     []SearchResult
	DetailsResults     []DetailsResult
	SearchCandidates   []Candidate
	TasteCandidates    []Candidate
	Locations          []LocationResult

	DestinationID uuid.UUID
	Params        *StructuredParameters
}

func NewIntent(caption string, kind IntentKind, destination uuid.UUID, params *StructuredParameters) *Intent {
	return &Intent{
		ID:            uuid.New(),
		Caption:       caption,
		Kind:          kind,
		DestinationID: destination,
		Params:        params,
	}
}

// CarryForward builds a new intent for caption/kind that keeps the previous
// intent's accumulated results, used when the last history entry is replaced.
func (i *Intent) CarryForward(caption string, kind IntentKind, destination uuid.UUID, params *StructuredParameters) *Intent {
	next := NewIntent(caption, kind, destination, params)
	next.SelectedSearchResult = i.SelectedSearchResult
	next.SelectedDetails = i.SelectedDetails
	next.SearchResults = i.SearchResults
	next.RecommendedResults = i.RecommendedResults
	next.RelatedResults = i.RelatedResults
	next.DetailsResults = i.DetailsResults
	next.Locations = i.Locations
	return next
}
