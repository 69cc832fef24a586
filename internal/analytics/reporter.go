package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/config"
	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/observability"
)

// Reporter publishes turn events and collaborator failures to Kafka.
// Failures during a turn are reported here instead of being propagated,
// so every publish path is best-effort.
type Reporter struct {
	events  *kafka.Writer
	errors  *kafka.Writer
	brokers []string
	logger  *zap.Logger
}

// errorRecord is the wire shape of one reported failure.
type errorRecord struct {
	Context   string    `json:"context"`
	Error     string    `json:"error"`
	TraceID   string    `json:"trace_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReporter(cfg config.KafkaConfig, logger *zap.Logger) *Reporter {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.BatchTimeout,
			MaxAttempts:  cfg.MaxRetries,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
		}
	}

	logger.Info("analytics reporter created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("events_topic", cfg.TopicEvents),
		zap.String("errors_topic", cfg.TopicErrors),
	)

	return &Reporter{
		events:  newWriter(cfg.TopicEvents),
		errors:  newWriter(cfg.TopicErrors),
		brokers: cfg.Brokers,
		logger:  logger,
	}
}

// Report publishes a collaborator failure without blocking the turn. The
// publish runs on its own goroutine with its own deadline; if Kafka is down
// the failure is only logged.
func (r *Reporter) Report(ctx context.Context, reported error, scope string) {
	if reported == nil {
		return
	}

	rec := errorRecord{
		Context:   scope,
		Error:     reported.Error(),
		TraceID:   observability.TraceIDFromContext(ctx),
		Timestamp: time.Now().UTC(),
	}

	r.logger.Warn("collaborator failure",
		zap.String("context", rec.Context),
		zap.Error(reported),
	)

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		data, err := json.Marshal(rec)
		if err != nil {
			r.logger.Error("marshaling error record", zap.Error(err))
			return
		}
		msg := kafka.Message{
			Key:   []byte(rec.Context),
			Value: data,
			Time:  rec.Timestamp,
			Headers: []kafka.Header{
				{Key: "record_type", Value: []byte("error")},
			},
		}
		if err := r.errors.WriteMessages(pubCtx, msg); err != nil {
			r.logger.Error("publishing error record", zap.Error(err))
		}
	}()
}

// PublishTurnEvent publishes one turn analytics event to the events topic.
func (r *Reporter) PublishTurnEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling turn event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.QueryHash),
		Value: data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "intent", Value: []byte(event.Intent)},
		},
	}

	if err := r.events.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing turn event: %w", err)
	}
	return nil
}

func (r *Reporter) HealthCheck(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", r.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka health check dial: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Brokers(); err != nil {
		return fmt.Errorf("kafka health check brokers: %w", err)
	}
	return nil
}

func (r *Reporter) Close() error {
	var errs []error
	if err := r.events.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing events writer: %w", err))
	}
	if err := r.errors.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing errors writer: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("reporter close errors: %v", errs)
	}
	return nil
}
