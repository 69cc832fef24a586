package tagging

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WordSetDictionary answers definition lookups from a fixed word list, keyed
// lower case.
type WordSetDictionary struct {
	words map[string]struct{}
}

func NewWordSetDictionary(words []string) *WordSetDictionary {
	d := &WordSetDictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			d.words[w] = struct{}{}
		}
	}
	return d
}

// LoadDictionary reads a word list file, one word per line. Blank lines and
// lines starting with '#' are skipped.
func LoadDictionary(path string) (*WordSetDictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dictionary: %w", err)
	}
	defer f.Close()

	d := &WordSetDictionary{words: make(map[string]struct{})}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		d.words[w] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	return d, nil
}

func (d *WordSetDictionary) HasDefinition(word string) bool {
	_, ok := d.words[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// Len reports the vocabulary size.
func (d *WordSetDictionary) Len() int {
	return len(d.words)
}
