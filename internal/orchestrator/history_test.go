package orchestrator

import (
	"testing"

	"github.com/google/uuid"

	"github.com/knowplaces/placeflow/internal/models"
)

func intentWithCaption(caption string) *models.Intent {
	return models.NewIntent(caption, models.IntentSearch, uuid.Nil, nil)
}

func TestHistory_AppendAndLast(t *testing.T) {
	h := NewIntentHistory()
	if h.Last() != nil {
		t.Error("empty history has no live intent")
	}

	first := intentWithCaption("coffee")
	second := intentWithCaption("pizza")
	h.Append(first)
	h.Append(second)

	if h.Len() != 2 {
		t.Errorf("len = %d, want 2", h.Len())
	}
	if h.Last() != second {
		t.Error("last should be the most recent append")
	}
}

func TestHistory_ReplaceLast(t *testing.T) {
	h := NewIntentHistory()
	h.Append(intentWithCaption("coffee"))
	h.Append(intentWithCaption("pizza"))

	replacement := intentWithCaption("cheap pizza")
	h.ReplaceLast(replacement)

	if h.Len() != 2 {
		t.Errorf("replace must not grow the history, len = %d", h.Len())
	}
	if h.Last() != replacement {
		t.Error("last should be the replacement")
	}
}

func TestHistory_ReplaceLastOnEmptyAppends(t *testing.T) {
	h := NewIntentHistory()
	intent := intentWithCaption("coffee")
	h.ReplaceLast(intent)

	if h.Len() != 1 || h.Last() != intent {
		t.Error("replace on empty history should behave like append")
	}
}

func TestHistory_UndoNoopBelowTwo(t *testing.T) {
	h := NewIntentHistory()
	if h.Undo() != nil {
		t.Error("undo on empty history must be a no-op")
	}

	only := intentWithCaption("coffee")
	h.Append(only)
	if h.Undo() != nil {
		t.Error("undo with a single entry must be a no-op")
	}
	if h.Len() != 1 || h.Last() != only {
		t.Error("no-op undo must not change the history")
	}
}

func TestHistory_UndoDropsLast(t *testing.T) {
	h := NewIntentHistory()
	first := intentWithCaption("coffee")
	h.Append(first)
	h.Append(intentWithCaption("pizza"))

	if got := h.Undo(); got != first {
		t.Error("undo should return the new live intent")
	}
	if h.Len() != 1 {
		t.Errorf("len = %d, want 1", h.Len())
	}
}

func TestHistory_ResetAndSnapshot(t *testing.T) {
	h := NewIntentHistory()
	h.Append(intentWithCaption("coffee"))
	h.Append(intentWithCaption("pizza"))

	snap := h.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}

	h.Reset()
	if h.Len() != 0 {
		t.Error("reset should clear the history")
	}
	if len(snap) != 2 {
		t.Error("snapshot must not alias the cleared history")
	}
}
