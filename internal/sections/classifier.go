// Package sections holds the trained text model that maps free-form titles
// onto coarse section labels. The model is a multinomial naive Bayes over
// labeled sample phrases loaded at startup.
package sections

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Classifier predicts a section label for a short text. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	wordCounts map[string]map[string]int
	labelWords map[string]int
	labelDocs  map[string]int
	totalDocs  int
	vocabSize  int
	logger     *zap.Logger
}

// Load reads a JSON model file mapping each label to its sample phrases.
func Load(path string, logger *zap.Logger) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading section model: %w", err)
	}

	var samples map[string][]string
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("parsing section model: %w", err)
	}
	return Train(samples, logger)
}

// Train builds a classifier from labeled sample phrases. Every label needs at
// least one non-empty sample.
func Train(samples map[string][]string, logger *zap.Logger) (*Classifier, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("section model has no labels")
	}

	c := &Classifier{
		wordCounts: make(map[string]map[string]int),
		labelWords: make(map[string]int),
		labelDocs:  make(map[string]int),
		logger:     logger,
	}
	vocab := make(map[string]struct{})

	for label, phrases := range samples {
		counts := make(map[string]int)
		for _, phrase := range phrases {
			words := tokenize(phrase)
			if len(words) == 0 {
				continue
			}
			c.labelDocs[label]++
			c.totalDocs++
			for _, w := range words {
				counts[w]++
				c.labelWords[label]++
				vocab[w] = struct{}{}
			}
		}
		if c.labelDocs[label] == 0 {
			return nil, fmt.Errorf("section label %q has no usable samples", label)
		}
		c.wordCounts[label] = counts
	}
	c.vocabSize = len(vocab)

	logger.Info("section model trained",
		zap.Int("labels", len(c.labelDocs)),
		zap.Int("vocabulary", c.vocabSize),
	)
	return c, nil
}

// Classify returns the most probable label for the text. Texts with no
// recognizable tokens are an error; the caller decides the fallback.
func (c *Classifier) Classify(_ context.Context, text string) (string, error) {
	words := tokenize(text)
	if len(words) == 0 {
		return "", fmt.Errorf("no classifiable tokens in %q", text)
	}

	best := ""
	bestScore := math.Inf(-1)
	for label, counts := range c.wordCounts {
		// Log prior plus Laplace-smoothed log likelihood per token.
		score := math.Log(float64(c.labelDocs[label]) / float64(c.totalDocs))
		denom := float64(c.labelWords[label] + c.vocabSize)
		for _, w := range words {
			score += math.Log(float64(counts[w]+1) / denom)
		}
		if score > bestScore || (score == bestScore && label < best) {
			best = label
			bestScore = score
		}
	}
	return best, nil
}

// Labels returns the trained label set in no particular order.
func (c *Classifier) Labels() []string {
	labels := make([]string, 0, len(c.labelDocs))
	for label := range c.labelDocs {
		labels = append(labels, label)
	}
	return labels
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
		})
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}
