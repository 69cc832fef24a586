package models

import "github.com/google/uuid"

// SearchResult is a place record returned by the external search API,
// keyed by the provider's place identifier. Immutable once received.
type SearchResult struct {
	FsqID            string   `json:"fsq_id"`
	Name             string   `json:"name"`
	Categories       []string `json:"categories,omitempty"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Address          string   `json:"address,omitempty"`
	Neighborhood     string   `json:"neighborhood,omitempty"`
	Locality         string   `json:"locality,omitempty"`
	Region           string   `json:"region,omitempty"`
	PostCode         string   `json:"post_code,omitempty"`
	Country          string   `json:"country,omitempty"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
}

// RecommendedResult is a personalization-scored place record. It carries the
// taste attributes the recommender scores against.
type RecommendedResult struct {
	FsqID            string   `json:"fsq_id"`
	Name             string   `json:"name"`
	Categories       []string `json:"categories,omitempty"`
	Tastes           []string `json:"tastes,omitempty"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Address          string   `json:"address,omitempty"`
	Neighborhood     string   `json:"neighborhood,omitempty"`
	City             string   `json:"city,omitempty"`
	State            string   `json:"state,omitempty"`
	PostCode         string   `json:"post_code,omitempty"`
	Country          string   `json:"country,omitempty"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
}

// SearchResult converts a recommended record into the plain search shape so
// downstream formatting only deals with one base type.
func (r RecommendedResult) SearchResult() SearchResult {
	return SearchResult{
		FsqID:            r.FsqID,
		Name:             r.Name,
		Categories:       r.Categories,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		Address:          r.Address,
		Neighborhood:     r.Neighborhood,
		Locality:         r.City,
		Region:           r.State,
		PostCode:         r.PostCode,
		Country:          r.Country,
		FormattedAddress: r.FormattedAddress,
	}
}

// DetailsResult is the full detail record for one place.
type DetailsResult struct {
	FsqID        string       `json:"fsq_id"`
	SearchResult SearchResult `json:"search_result"`
	Description  string       `json:"description,omitempty"`
	Rating       float64      `json:"rating,omitempty"`
	Price        int          `json:"price,omitempty"`
	Hours        string       `json:"hours,omitempty"`
	Tastes       []string     `json:"tastes,omitempty"`
	Tips         []string     `json:"tips,omitempty"`
	Website      string       `json:"website,omitempty"`
	Tel          string       `json:"tel,omitempty"`
}

// Candidate is one raw autocomplete suggestion, stored unranked.
type Candidate struct {
	FsqID      string   `json:"fsq_id,omitempty"`
	Text       string   `json:"text"`
	Categories []string `json:"categories,omitempty"`
}

// Placemark is a resolved geographic location from the geocoding collaborator.
type Placemark struct {
	Name        string  `json:"name"`
	Locality    string  `json:"locality,omitempty"`
	SubLocality string  `json:"sub_locality,omitempty"`
	Country     string  `json:"country,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// LocationResult is a named destination the user can search near.
type LocationResult struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	HasCoordinate bool      `json:"has_coordinate"`
}

func NewLocationResult(name string, lat, lon float64) LocationResult {
	return LocationResult{ID: uuid.New(), Name: name, Latitude: lat, Longitude: lon, HasCoordinate: true}
}

// PlaceView wraps one externally sourced record with a locally assigned
// identifier, the original response index (ranking tie-break), and the rating
// used for sort order.
type PlaceView struct {
	ID       uuid.UUID `json:"id"`
	ParentID uuid.UUID `json:"parent_id,omitempty"`
	Index    int       `json:"index"`
	Title    string    `json:"title"`
	Rating   float64   `json:"rating"`
	Section  Section   `json:"section"`
	List     string    `json:"list,omitempty"`

	Place       *SearchResult      `json:"place,omitempty"`
	Recommended *RecommendedResult `json:"recommended,omitempty"`
	Details     *DetailsResult     `json:"details,omitempty"`
}

// FsqID returns the external identifier of whichever record backs the view.
func (v PlaceView) FsqID() string {
	switch {
	case v.Place != nil:
		return v.Place.FsqID
	case v.Recommended != nil:
		return v.Recommended.FsqID
	case v.Details != nil:
		return v.Details.FsqID
	default:
		return ""
	}
}

// CategoryResult groups place views under one category or taste label.
type CategoryResult struct {
	ID             uuid.UUID        `json:"id"`
	ParentCategory string           `json:"parent_category"`
	Rating         float64          `json:"rating"`
	Section        Section          `json:"section"`
	List           string           `json:"list,omitempty"`
	Children       []CategoryResult `json:"children,omitempty"`
	Views          []PlaceView      `json:"views,omitempty"`
}

// RecommendationRecord is one row of user preference history used to train
// the rating model.
type RecommendationRecord struct {
	ID               uuid.UUID          `json:"id"`
	Identity         string             `json:"identity"`
	Attributes       []string           `json:"attributes,omitempty"`
	AttributeRatings map[string]float64 `json:"attribute_ratings,omitempty"`
}

// GroupTag partitions persistent-store records.
type GroupTag string

const (
	GroupCategory GroupTag = "Category"
	GroupTaste    GroupTag = "Taste"
	GroupPlace    GroupTag = "Place"
	GroupLocation GroupTag = "Location"
)

// ResultCollections holds every mutable result list owned by the
// orchestrator. Lists are replaced wholesale on each successful call, never
// partially mutated, and cleared on conversation reset.
type ResultCollections struct {
	Places      []PlaceView
	Recommended []PlaceView
	Related     []PlaceView
	Industry    []CategoryResult
	Taste       []CategoryResult

	CachedIndustry        []CategoryResult
	CachedPlace           []CategoryResult
	CachedTaste           []CategoryResult
	CachedRecommendations []RecommendationRecord

	Locations []LocationResult
}
