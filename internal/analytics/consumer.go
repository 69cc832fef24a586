package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/config"
	"github.com/knowplaces/placeflow/internal/models"
)

// TurnSink receives batches of ingested turn events.
type TurnSink interface {
	WriteTurnBatch(ctx context.Context, events []models.AnalyticsEvent) error
}

// Consumer drains the turn events topic into the analytics store. Events
// are buffered and flushed as batches; malformed or repeatedly failing
// messages go to the DLQ topic so the ingest never stalls.
type Consumer struct {
	reader     *kafka.Reader
	dlqWriter  *kafka.Writer
	sink       TurnSink
	cfg        config.KafkaConfig
	logger     *zap.Logger
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc

	mu     sync.Mutex
	buffer []models.AnalyticsEvent
	ticker *time.Ticker
}

func NewConsumer(cfg config.KafkaConfig, sink TurnSink, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.TopicEvents,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	dlqWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.TopicDLQ,
		Balancer: &kafka.Hash{},
	}

	logger.Info("analytics consumer created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.TopicEvents),
		zap.String("group", cfg.ConsumerGroup),
	)

	return &Consumer{
		reader:    reader,
		dlqWriter: dlqWriter,
		sink:      sink,
		cfg:       cfg,
		logger:    logger,
		buffer:    make([]models.AnalyticsEvent, 0, cfg.BatchSize),
		ticker:    time.NewTicker(cfg.BatchTimeout),
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.consumeLoop(ctx)
	}()
	go func() {
		defer c.wg.Done()
		c.flushLoop(ctx)
	}()

	c.logger.Info("analytics consumer started")
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("analytics consumer shutting down")
			return
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetching kafka message", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	var event models.AnalyticsEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("unmarshaling turn event",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
			zap.Int("partition", msg.Partition),
		)
		c.sendToDLQ(ctx, msg, fmt.Sprintf("unmarshal error: %v", err))
		c.commitMessage(ctx, msg)
		return
	}

	c.mu.Lock()
	c.buffer = append(c.buffer, event)
	shouldFlush := len(c.buffer) >= c.cfg.BatchSize
	c.mu.Unlock()

	if shouldFlush {
		if err := c.flush(ctx); err != nil {
			c.logger.Error("flush on buffer full failed", zap.Error(err))
		}
	}

	c.commitMessage(ctx, msg)
}

func (c *Consumer) flushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Final flush so buffered events survive shutdown.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.flush(flushCtx); err != nil {
				c.logger.Error("final flush failed", zap.Error(err))
			}
			cancel()
			return
		case <-c.ticker.C:
			if err := c.flush(ctx); err != nil {
				c.logger.Error("periodic flush failed", zap.Error(err))
			}
		}
	}
}

func (c *Consumer) flush(ctx context.Context) error {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return nil
	}
	batch := c.buffer
	c.buffer = make([]models.AnalyticsEvent, 0, c.cfg.BatchSize)
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if err := c.sink.WriteTurnBatch(ctx, batch); err != nil {
			lastErr = err
			c.logger.Warn("batch write failed, retrying",
				zap.Error(err),
				zap.Int("attempt", attempt+1),
				zap.Int("rows", len(batch)),
			)
			backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
			time.Sleep(backoff)
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return fmt.Errorf("writing batch of %d after retries: %w", len(batch), lastErr)
	}

	c.logger.Debug("turn events flushed", zap.Int("rows", len(batch)))
	return nil
}

func (c *Consumer) sendToDLQ(ctx context.Context, msg kafka.Message, reason string) {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "dlq_reason", Value: []byte(reason)},
			kafka.Header{Key: "original_topic", Value: []byte(c.cfg.TopicEvents)},
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
		),
	}

	if err := c.dlqWriter.WriteMessages(ctx, dlqMsg); err != nil {
		c.logger.Error("failed to send to DLQ",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
		)
	}
}

func (c *Consumer) commitMessage(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("committing kafka message",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
		)
	}
}

func (c *Consumer) Stop() error {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	c.ticker.Stop()

	var errs []error
	if err := c.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing reader: %w", err))
	}
	if err := c.dlqWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing dlq writer: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("consumer close errors: %v", errs)
	}
	return nil
}
