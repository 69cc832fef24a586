// Package recommender scores recommended place results against the user's
// stored preference history. With too little history every result gets the
// uniform rating 1 and ranking degrades to original response order.
package recommender

import (
	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/models"
)

// minTrainingRecords is the history size below which attribute scoring is
// not meaningful.
const minTrainingRecords = 2

// Model predicts a rating for a recommended result from its attributes.
type Model struct {
	weights map[string]float64
	trained bool
	logger  *zap.Logger
}

// Train builds attribute weights from the cached taste and industry records
// plus stored preference ratings. Fewer than minTrainingRecords+1 records in
// both groups leaves the model untrained.
func Train(cachedTaste, cachedIndustry []models.CategoryResult, records []models.RecommendationRecord, logger *zap.Logger) *Model {
	m := &Model{weights: make(map[string]float64), logger: logger}

	if len(cachedTaste) <= minTrainingRecords && len(cachedIndustry) <= minTrainingRecords {
		logger.Debug("insufficient history for attribute scoring, using uniform ratings",
			zap.Int("cached_taste", len(cachedTaste)),
			zap.Int("cached_industry", len(cachedIndustry)),
		)
		return m
	}

	counts := make(map[string]int)
	for _, c := range cachedTaste {
		m.weights[normalize(c.ParentCategory)] += c.Rating
		counts[normalize(c.ParentCategory)]++
	}
	for _, c := range cachedIndustry {
		m.weights[normalize(c.ParentCategory)] += c.Rating
		counts[normalize(c.ParentCategory)]++
	}
	for _, r := range records {
		for attr, rating := range r.AttributeRatings {
			m.weights[normalize(attr)] += rating
			counts[normalize(attr)]++
		}
	}
	for attr, n := range counts {
		if n > 1 {
			m.weights[attr] /= float64(n)
		}
	}

	m.trained = true
	logger.Debug("recommendation model trained", zap.Int("attributes", len(m.weights)))
	return m
}

// Trained reports whether the model carries learned weights.
func (m *Model) Trained() bool {
	return m.trained
}

// Rate predicts a rating for one recommended result: the highest weight
// among its attributes. Untrained models and results with no known
// attributes rate uniformly at 1.
func (m *Model) Rate(result models.RecommendedResult) float64 {
	if !m.trained {
		return 1
	}

	best := 0.0
	for _, taste := range result.Tastes {
		if w, ok := m.weights[normalize(taste)]; ok && w > best {
			best = w
		}
	}
	for _, category := range result.Categories {
		if w, ok := m.weights[normalize(category)]; ok && w > best {
			best = w
		}
	}
	if best == 0 {
		return 1
	}
	return best
}

func normalize(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return string(b)
}
