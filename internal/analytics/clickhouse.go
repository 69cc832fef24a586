// Package analytics is the offline tail of the pipeline: turn performance
// rows go to ClickHouse for dashboards, and turn events plus collaborator
// failures are published to Kafka for triage. Nothing in here may fail a
// user turn.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/config"
	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/observability"
)

type Client struct {
	conn   driver.Conn
	logger *zap.Logger
}

func NewClient(cfg config.ClickHouseConfig, logger *zap.Logger) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addresses,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": int(cfg.QueryTimeout.Seconds()),
		},
		DialTimeout:  cfg.DialTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging clickhouse: %w", err)
	}

	logger.Info("analytics store connected", zap.Strings("addresses", cfg.Addresses))

	return &Client{
		conn:   conn,
		logger: logger,
	}, nil
}

// WriteTurnPerformance inserts one turn performance row. Callers treat
// failures as best-effort.
func (c *Client) WriteTurnPerformance(ctx context.Context, event *models.AnalyticsEvent) error {
	start := time.Now()

	query := `
		INSERT INTO turn_performance (
			event_type, query_hash, intent, duration_ms,
			result_count, sources_hit, degraded, message, timestamp, trace_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := c.conn.Exec(ctx, query,
		event.EventType,
		event.QueryHash,
		event.Intent,
		event.DurationMs,
		event.ResultCount,
		event.SourcesHit,
		event.Degraded,
		event.Message,
		event.Timestamp,
		event.TraceID,
	)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.CHQueryDuration.WithLabelValues("turn_performance", status).Observe(time.Since(start).Seconds())
	return err
}

// WriteTurnBatch inserts many turn performance rows in one batch. Used by
// the ingest consumer; single-row writers should use WriteTurnPerformance.
func (c *Client) WriteTurnBatch(ctx context.Context, events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()

	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO turn_performance")
	if err != nil {
		observability.CHQueryDuration.WithLabelValues("turn_batch", "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("preparing turn batch: %w", err)
	}
	for i := range events {
		if err := batch.AppendStruct(&events[i]); err != nil {
			observability.CHQueryDuration.WithLabelValues("turn_batch", "error").Observe(time.Since(start).Seconds())
			return fmt.Errorf("appending turn row %d: %w", i, err)
		}
	}
	if err := batch.Send(); err != nil {
		observability.CHQueryDuration.WithLabelValues("turn_batch", "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("sending turn batch: %w", err)
	}

	observability.CHQueryDuration.WithLabelValues("turn_batch", "success").Observe(time.Since(start).Seconds())
	return nil
}

// IntentStat is one row of the per-intent breakdown served by the stats
// endpoint.
type IntentStat struct {
	Intent        string  `json:"intent"`
	Turns         int64   `json:"turns"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	DegradedTurns int64   `json:"degraded_turns"`
}

// IntentBreakdown aggregates turn performance per intent since the given
// time.
func (c *Client) IntentBreakdown(ctx context.Context, since time.Time) ([]IntentStat, error) {
	ctx, span := observability.StartSpan(ctx, "ch.intent_breakdown")
	defer span.End()

	start := time.Now()

	query := `
		SELECT
			intent,
			count() AS turns,
			avg(duration_ms) AS avg_duration_ms,
			countIf(degraded) AS degraded_turns
		FROM turn_performance
		WHERE timestamp >= ?
		GROUP BY intent
		ORDER BY turns DESC
	`

	rows, err := c.conn.Query(ctx, query, since)
	if err != nil {
		observability.CHQueryDuration.WithLabelValues("intent_breakdown", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("ch intent breakdown: %w", err)
	}
	defer rows.Close()

	var stats []IntentStat
	for rows.Next() {
		var s IntentStat
		var turns, degraded uint64
		if err := rows.Scan(&s.Intent, &turns, &s.AvgDurationMs, &degraded); err != nil {
			return nil, fmt.Errorf("scanning intent row: %w", err)
		}
		s.Turns = int64(turns)
		s.DegradedTurns = int64(degraded)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating intent rows: %w", err)
	}

	observability.CHQueryDuration.WithLabelValues("intent_breakdown", "success").Observe(time.Since(start).Seconds())
	return stats, nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) EnsureTables(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS turn_performance (
		event_type String,
		query_hash String,
		intent String,
		duration_ms Float64,
		result_count Int64,
		sources_hit Int32,
		degraded Bool,
		message String,
		timestamp DateTime,
		trace_id String
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(timestamp)
	ORDER BY (timestamp, query_hash)`

	if err := c.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating turn_performance table: %w", err)
	}

	c.logger.Info("clickhouse tables ensured")
	return nil
}
