package observability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/knowplaces/placeflow/internal/models"

	"go.uber.org/zap"
)

type mockAnalyticsWriter struct {
	mu     sync.Mutex
	events []*models.AnalyticsEvent
}

func (m *mockAnalyticsWriter) WriteTurnPerformance(ctx context.Context, event *models.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockAnalyticsWriter) getEvents() []*models.AnalyticsEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]*models.AnalyticsEvent, len(m.events))
	copy(cp, m.events)
	return cp
}

func TestSlowTurnDetector_ClassifySeverity(t *testing.T) {
	std := &SlowTurnDetector{
		warningThreshold:  200 * time.Millisecond,
		criticalThreshold: 500 * time.Millisecond,
	}

	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"below warning", 100 * time.Millisecond, "normal"},
		{"at warning", 200 * time.Millisecond, "normal"},
		{"above warning", 300 * time.Millisecond, "warning"},
		{"at critical", 500 * time.Millisecond, "warning"},
		{"above critical", 600 * time.Millisecond, "critical"},
		{"well above critical", 1 * time.Second, "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := std.classifySeverity(tt.duration)
			if got != tt.want {
				t.Errorf("classifySeverity(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestSlowTurnDetector_InterceptBelowThreshold(t *testing.T) {
	aw := &mockAnalyticsWriter{}
	std := NewSlowTurnDetector(200*time.Millisecond, 500*time.Millisecond, zap.NewNop(), aw)

	std.Intercept(context.Background(), "coffee near me", "search",
		100*time.Millisecond, 50, 2, false)

	// Give the async writer time just in case (it shouldn't fire)
	time.Sleep(50 * time.Millisecond)

	if events := aw.getEvents(); len(events) != 0 {
		t.Errorf("expected no analytics events for fast turn, got %d", len(events))
	}
}

func TestSlowTurnDetector_InterceptAboveWarning(t *testing.T) {
	aw := &mockAnalyticsWriter{}
	std := NewSlowTurnDetector(200*time.Millisecond, 500*time.Millisecond, zap.NewNop(), aw)

	std.Intercept(context.Background(), "slow turn", "search",
		300*time.Millisecond, 100, 3, false)

	// Wait for the async analytics write
	time.Sleep(100 * time.Millisecond)

	events := aw.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 analytics event, got %d", len(events))
	}

	event := events[0]
	if event.EventType != "turn_performance" {
		t.Errorf("expected event type 'turn_performance', got %q", event.EventType)
	}
	if event.Intent != "search" {
		t.Errorf("expected intent 'search', got %q", event.Intent)
	}
	if event.DurationMs != 300 {
		t.Errorf("expected duration 300ms, got %f", event.DurationMs)
	}
	if event.ResultCount != 100 {
		t.Errorf("expected result count 100, got %d", event.ResultCount)
	}
	if event.SourcesHit != 3 {
		t.Errorf("expected sources hit 3, got %d", event.SourcesHit)
	}
}

func TestSlowTurnDetector_InterceptAboveCritical(t *testing.T) {
	aw := &mockAnalyticsWriter{}
	std := NewSlowTurnDetector(200*time.Millisecond, 500*time.Millisecond, zap.NewNop(), aw)

	std.Intercept(context.Background(), "critical turn", "location",
		700*time.Millisecond, 200, 4, true)

	time.Sleep(100 * time.Millisecond)

	events := aw.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 analytics event, got %d", len(events))
	}
	if !events[0].Degraded {
		t.Error("expected degraded true")
	}
}

func TestSlowTurnDetector_NilAnalyticsWriter(t *testing.T) {
	std := NewSlowTurnDetector(200*time.Millisecond, 500*time.Millisecond, zap.NewNop(), nil)

	// Should not panic
	std.Intercept(context.Background(), "slow turn", "search",
		300*time.Millisecond, 100, 3, false)
}

func TestNewSlowTurnDetector(t *testing.T) {
	aw := &mockAnalyticsWriter{}
	std := NewSlowTurnDetector(200*time.Millisecond, 500*time.Millisecond, zap.NewNop(), aw)

	if std == nil {
		t.Fatal("expected non-nil SlowTurnDetector")
	}
	if std.warningThreshold != 200*time.Millisecond {
		t.Errorf("expected warning threshold 200ms, got %v", std.warningThreshold)
	}
	if std.criticalThreshold != 500*time.Millisecond {
		t.Errorf("expected critical threshold 500ms, got %v", std.criticalThreshold)
	}
}

func TestCaptionHash(t *testing.T) {
	h1 := CaptionHash("coffee near me")
	h2 := CaptionHash("coffee near me")

	if h1 != h2 {
		t.Errorf("CaptionHash not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 16 {
		t.Errorf("expected 16 char hex, got %d chars: %q", len(h1), h1)
	}
}

func TestHashUint64(t *testing.T) {
	if hashUint64("test") != hashUint64("test") {
		t.Error("hashUint64 not deterministic")
	}
	if hashUint64("test") == hashUint64("other") {
		t.Error("different inputs should produce different hashes")
	}
	if hashUint64("") != 0 {
		t.Error("expected 0 for empty string")
	}
}
