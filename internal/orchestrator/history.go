package orchestrator

import (
	"sync"

	"github.com/knowplaces/placeflow/internal/models"
)

// IntentHistory is the ordered, append-only sequence of intent snapshots for
// one conversation. The last element is the live intent. Entries are never
// reordered, only appended or truncated.
type IntentHistory struct {
	mu      sync.RWMutex
	intents []*models.Intent
}

func NewIntentHistory() *IntentHistory {
	return &IntentHistory{}
}

// Append pushes a new intent onto the history.
func (h *IntentHistory) Append(intent *models.Intent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.intents = append(h.intents, intent)
}

// ReplaceLast swaps the live intent for a new snapshot. Pop-then-push keeps
// every prior entry an immutable snapshot at append time. With an empty
// history it behaves like Append.
func (h *IntentHistory) ReplaceLast(intent *models.Intent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.intents) == 0 {
		h.intents = append(h.intents, intent)
		return
	}
	h.intents[len(h.intents)-1] = intent
}

// Last returns the live intent, or nil for an empty history.
func (h *IntentHistory) Last() *models.Intent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.intents) == 0 {
		return nil
	}
	return h.intents[len(h.intents)-1]
}

// Len returns the number of intents in the history.
func (h *IntentHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.intents)
}

// Undo drops the last entry and returns the new live intent. With fewer than
// two entries it is a no-op and returns nil.
func (h *IntentHistory) Undo() *models.Intent {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.intents) < 2 {
		return nil
	}
	h.intents = h.intents[:len(h.intents)-1]
	return h.intents[len(h.intents)-1]
}

// Reset clears the history entirely, used when the user starts a new topic.
func (h *IntentHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.intents = nil
}

// Snapshot returns a copy of the current intent sequence for persistence.
func (h *IntentHistory) Snapshot() []*models.Intent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make([]*models.Intent, len(h.intents))
	copy(cp, h.intents)
	return cp
}
