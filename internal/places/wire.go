package places

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/knowplaces/placeflow/internal/models"
)

// buildValues maps a Request onto the API's query parameters. Unset fields
// are omitted so the API applies its own defaults.
func buildValues(req *Request) url.Values {
	values := url.Values{}
	if req == nil {
		return values
	}
	if req.Query != "" {
		values.Set("query", req.Query)
	}
	if req.Latitude != 0 || req.Longitude != 0 {
		values.Set("ll", strconv.FormatFloat(req.Latitude, 'f', 6, 64)+","+strconv.FormatFloat(req.Longitude, 'f', 6, 64))
	}
	if req.Radius > 0 {
		values.Set("radius", strconv.Itoa(req.Radius))
	}
	if req.MinPrice > 0 {
		values.Set("min_price", strconv.Itoa(req.MinPrice))
	}
	if req.MaxPrice > 0 {
		values.Set("max_price", strconv.Itoa(req.MaxPrice))
	}
	if req.OpenNow {
		values.Set("open_now", "true")
	}
	if len(req.CategoryCodes) > 0 {
		values.Set("categories", strings.Join(req.CategoryCodes, ","))
	}
	if req.Limit > 0 {
		values.Set("limit", strconv.Itoa(req.Limit))
	}
	return values
}

// RequestFrom builds an API request from structured parameters and a
// resolved location. The radius default differs between direct search and
// recommendation calls, so the caller supplies it.
func RequestFrom(params *models.StructuredParameters, caption string, lat, lon float64, defaultRadius int) *Request {
	req := &Request{
		Latitude:  lat,
		Longitude: lon,
		Radius:    defaultRadius,
		Limit:     models.DefaultResultLimit,
	}
	if params == nil {
		req.Query = caption
		return req
	}
	req.Query = params.EffectiveQuery(caption)
	if params.Radius > 0 {
		req.Radius = params.Radius
	}
	req.MinPrice = params.MinPrice
	req.MaxPrice = params.MaxPrice
	req.OpenNow = params.OpenNow
	req.CategoryCodes = params.CategoryCodes
	if params.Limit > 0 {
		req.Limit = params.Limit
	}
	return req
}

// Wire payloads. The API nests location and category data; the flatteners
// below produce the model shapes the pipeline works with.

type searchResponse struct {
	Results []placePayload `json:"results"`
}

type relatedResponse struct {
	Related []placePayload `json:"related"`
}

type autocompleteResponse struct {
	Results []candidatePayload `json:"results"`
}

type placePayload struct {
	FsqID      string            `json:"fsq_id"`
	Name       string            `json:"name"`
	Categories []categoryPayload `json:"categories"`
	Geocodes   struct {
		Main struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"main"`
	} `json:"geocodes"`
	Location struct {
		Address          string `json:"address"`
		Neighborhood     []string `json:"neighborhood"`
		Locality         string `json:"locality"`
		Region           string `json:"region"`
		Postcode         string `json:"postcode"`
		Country          string `json:"country"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
	Tastes      []string `json:"tastes"`
	Description string   `json:"description"`
	Rating      float64  `json:"rating"`
	Price       int      `json:"price"`
	Hours       struct {
		Display string `json:"display"`
	} `json:"hours"`
	Tips []struct {
		Text string `json:"text"`
	} `json:"tips"`
	Website string `json:"website"`
	Tel     string `json:"tel"`
}

type categoryPayload struct {
	Name string `json:"name"`
}

type candidatePayload struct {
	Text struct {
		Primary string `json:"primary"`
	} `json:"text"`
	Place *placePayload `json:"place"`
}

func (p placePayload) searchResult() models.SearchResult {
	var neighborhood string
	if len(p.Location.Neighborhood) > 0 {
		neighborhood = p.Location.Neighborhood[0]
	}
	return models.SearchResult{
		FsqID:            p.FsqID,
		Name:             p.Name,
		Categories:       categoryNames(p.Categories),
		Latitude:         p.Geocodes.Main.Latitude,
		Longitude:        p.Geocodes.Main.Longitude,
		Address:          p.Location.Address,
		Neighborhood:     neighborhood,
		Locality:         p.Location.Locality,
		Region:           p.Location.Region,
		PostCode:         p.Location.Postcode,
		Country:          p.Location.Country,
		FormattedAddress: p.Location.FormattedAddress,
	}
}

func (p placePayload) recommended() models.RecommendedResult {
	var neighborhood string
	if len(p.Location.Neighborhood) > 0 {
		neighborhood = p.Location.Neighborhood[0]
	}
	return models.RecommendedResult{
		FsqID:            p.FsqID,
		Name:             p.Name,
		Categories:       categoryNames(p.Categories),
		Tastes:           p.Tastes,
		Latitude:         p.Geocodes.Main.Latitude,
		Longitude:        p.Geocodes.Main.Longitude,
		Address:          p.Location.Address,
		Neighborhood:     neighborhood,
		City:             p.Location.Locality,
		State:            p.Location.Region,
		PostCode:         p.Location.Postcode,
		Country:          p.Location.Country,
		FormattedAddress: p.Location.FormattedAddress,
	}
}

func (p placePayload) details() models.DetailsResult {
	tips := make([]string, 0, len(p.Tips))
	for _, t := range p.Tips {
		tips = append(tips, t.Text)
	}
	return models.DetailsResult{
		FsqID:        p.FsqID,
		SearchResult: p.searchResult(),
		Description:  p.Description,
		Rating:       p.Rating,
		Price:        p.Price,
		Hours:        p.Hours.Display,
		Tastes:       p.Tastes,
		Tips:         tips,
		Website:      p.Website,
		Tel:          p.Tel,
	}
}

func categoryNames(categories []categoryPayload) []string {
	if len(categories) == 0 {
		return nil
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

func toSearchResults(payloads []placePayload) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, p.searchResult())
	}
	return out
}

func toCandidates(payloads []candidatePayload) []models.Candidate {
	out := make([]models.Candidate, 0, len(payloads))
	for _, c := range payloads {
		cand := models.Candidate{Text: c.Text.Primary}
		if c.Place != nil {
			cand.FsqID = c.Place.FsqID
			cand.Categories = categoryNames(c.Place.Categories)
		}
		out = append(out, cand)
	}
	return out
}
