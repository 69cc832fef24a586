package taxonomy

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// syntheticRoot is the provider's placeholder parent; it groups every
// category and carries no signal, so it is discarded on load.
const syntheticRoot = "Foursquare Places"

// Subcategory is one leaf category with its provider code.
type Subcategory struct {
	Name string
	Code string
}

// Entry is one normalized taxonomy entry: a parent category and its sorted
// subcategories.
type Entry struct {
	Parent        string
	Subcategories []Subcategory
}

// Index holds the loaded category taxonomy. Immutable after Load; matching
// reads only shared immutable state and is safe to run concurrently.
type Index struct {
	entries []Entry
	parents map[string]int // parent name -> entries index
	pool    *ants.Pool
	logger  *zap.Logger
}

// rawEntry mirrors one value of the taxonomy resource:
// code -> { "full_label": ["Parent", ..., "Leaf"] }.
type rawEntry struct {
	FullLabel []string `json:"full_label"`
}

// Load reads and normalizes the taxonomy resource. Entries sharing a parent
// are merged, subcategory lists concatenated, parents and subcategories
// sorted ascending by name. A missing or malformed resource is a hard
// startup failure.
func Load(path string, workers int, logger *zap.Logger) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy resource %s: %w", path, err)
	}
	idx, err := Parse(data, workers, logger)
	if err != nil {
		return nil, fmt.Errorf("parsing taxonomy resource %s: %w", path, err)
	}
	return idx, nil
}

// LoadFS is Load over an fs.FS, used by tests and embedded resources.
func LoadFS(fsys fs.FS, path string, workers int, logger *zap.Logger) (*Index, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy resource %s: %w", path, err)
	}
	return Parse(data, workers, logger)
}

// Parse builds an Index from the raw taxonomy JSON.
func Parse(data []byte, workers int, logger *zap.Logger) (*Index, error) {
	var raw map[string]rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding taxonomy json: %w", err)
	}

	byParent := make(map[string][]Subcategory)
	for code, entry := range raw {
		if len(entry.FullLabel) == 0 {
			return nil, fmt.Errorf("taxonomy code %s has no labels", code)
		}
		parent := entry.FullLabel[0]
		leaf := entry.FullLabel[len(entry.FullLabel)-1]
		if parent == syntheticRoot {
			continue
		}
		byParent[parent] = append(byParent[parent], Subcategory{Name: leaf, Code: code})
	}

	entries := make([]Entry, 0, len(byParent))
	for parent, subs := range byParent {
		sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
		entries = append(entries, Entry{Parent: parent, Subcategories: subs})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Parent < entries[j].Parent })

	parents := make(map[string]int, len(entries))
	for i, e := range entries {
		parents[e.Parent] = i
	}

	if workers <= 0 {
		workers = defaultWorkers
	}
	pool, err := ants.NewPool(workers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("creating taxonomy worker pool: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("taxonomy loaded",
		zap.Int("parents", len(entries)),
		zap.Int("codes", len(raw)),
	)

	return &Index{entries: entries, parents: parents, pool: pool, logger: logger}, nil
}

const defaultWorkers = 8

// Entries returns the normalized entries in sorted order.
func (idx *Index) Entries() []Entry {
	return idx.entries
}

// HasParent reports whether name is a known parent category, matched exactly.
func (idx *Index) HasParent(name string) bool {
	_, ok := idx.parents[name]
	return ok
}

// AnySubcategoryContains reports whether any subcategory name contains
// the trimmed, lower-cased query as a substring. Used by intent
// classification, which is looser than parameter matching: a partial
// category name ("pizz") still counts as a searchable term.
func (idx *Index) AnySubcategoryContains(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, e := range idx.entries {
		for _, sub := range e.Subcategories {
			if strings.Contains(strings.ToLower(sub.Name), q) {
				return true
			}
		}
	}
	return false
}

// MatchCategories returns the deduplicated category codes matching the query.
// Each entry is evaluated independently on the worker pool against read-only
// inputs; the caller folds completed results into its own set, so the result
// never depends on completion order. A parent-name match pulls in every
// subcategory code of that parent; otherwise each subcategory name is
// compared individually. All comparisons are exact equality on the trimmed,
// lower-cased query.
func (idx *Index) MatchCategories(query string) map[string]struct{} {
	codes := make(map[string]struct{})
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(idx.entries) == 0 {
		return codes
	}

	results := make(chan []string, len(idx.entries))
	var wg sync.WaitGroup
	for i := range idx.entries {
		entry := idx.entries[i]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results <- matchEntry(entry, q)
		}
		if err := idx.pool.Submit(task); err != nil {
			// Pool exhausted or released: evaluate inline rather than drop
			// the entry, so the result set stays order-independent and total.
			task()
		}
	}
	wg.Wait()
	close(results)

	for matched := range results {
		for _, code := range matched {
			codes[code] = struct{}{}
		}
	}
	return codes
}

func matchEntry(entry Entry, query string) []string {
	var codes []string
	if strings.ToLower(entry.Parent) == query {
		for _, sub := range entry.Subcategories {
			codes = append(codes, sub.Code)
		}
		return codes
	}
	for _, sub := range entry.Subcategories {
		if strings.ToLower(sub.Name) == query {
			codes = append(codes, sub.Code)
		}
	}
	return codes
}

// Close releases the worker pool.
func (idx *Index) Close() {
	idx.pool.Release()
}
