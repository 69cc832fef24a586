package observability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/models"
)

// SlowTurnDetector watches end-to-end turn latency and records turns that
// exceed the warning threshold.
type SlowTurnDetector struct {
	warningThreshold  time.Duration
	criticalThreshold time.Duration
	logger            *zap.Logger
	analyticsWriter   AnalyticsWriter
}

// AnalyticsWriter persists turn performance events.
type AnalyticsWriter interface {
	WriteTurnPerformance(ctx context.Context, event *models.AnalyticsEvent) error
}

func NewSlowTurnDetector(warning, critical time.Duration, logger *zap.Logger, aw AnalyticsWriter) *SlowTurnDetector {
	return &SlowTurnDetector{
		warningThreshold:  warning,
		criticalThreshold: critical,
		logger:            logger,
		analyticsWriter:   aw,
	}
}

// Intercept records one completed turn. Turns at or under the warning
// threshold return immediately with zero overhead; that is the common case.
func (std *SlowTurnDetector) Intercept(ctx context.Context, caption string, intent string, duration time.Duration, resultCount int64, sourcesHit int, degraded bool) {
	if duration <= std.warningThreshold {
		return
	}

	traceID := TraceIDFromContext(ctx)
	severity := std.classifySeverity(duration)

	SlowTurnCounter.WithLabelValues(severity, intent).Inc()

	std.logger.Warn("slow turn detected",
		zap.String("trace_id", traceID),
		zap.String("caption_hash", CaptionHash(caption)),
		zap.String("intent", intent),
		zap.Float64("duration_ms", float64(duration.Milliseconds())),
		zap.Int64("result_count", resultCount),
		zap.Int("sources_hit", sourcesHit),
		zap.Bool("degraded", degraded),
		zap.String("severity", severity),
	)

	// Write to ClickHouse asynchronously so it never blocks the response.
	if std.analyticsWriter != nil {
		event := &models.AnalyticsEvent{
			EventType:   "turn_performance",
			QueryHash:   CaptionHash(caption),
			Intent:      intent,
			DurationMs:  float64(duration.Milliseconds()),
			ResultCount: resultCount,
			SourcesHit:  sourcesHit,
			Degraded:    degraded,
			Timestamp:   time.Now().UTC(),
			TraceID:     traceID,
		}
		go func() {
			writeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := std.analyticsWriter.WriteTurnPerformance(writeCtx, event); err != nil {
				std.logger.Error("failed to write turn analytics",
					zap.String("trace_id", traceID),
					zap.Error(err),
				)
			}
		}()
	}
}

func (std *SlowTurnDetector) classifySeverity(d time.Duration) string {
	if d > std.criticalThreshold {
		return "critical"
	}
	if d > std.warningThreshold {
		return "warning"
	}
	return "normal"
}

// CaptionHash is the log-safe identifier for a raw caption; raw query text
// never leaves the process.
func CaptionHash(caption string) string {
	return fmt.Sprintf("%016x", hashUint64(caption))
}

func hashUint64(s string) uint64 {
	h := uint64(0)
	for _, c := range s {
		h = h*31 + uint64(c)
	}
	return h
}
