// Package store is the persistent record store for user history: category,
// taste, place, and location records partitioned by group tag, plus
// recommendation preference records. The pipeline depends only on the
// group-scoped fetch/store/delete contract, not on the storage technology.
package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/knowplaces/placeflow/internal/config"
	"github.com/knowplaces/placeflow/internal/models"
	"github.com/knowplaces/placeflow/internal/observability"
)

// RecordStore is the persistence contract consumed by the orchestrator.
type RecordStore interface {
	FetchGroup(ctx context.Context, identity string, group models.GroupTag) ([]models.CategoryResult, error)
	StoreGroup(ctx context.Context, identity string, group models.GroupTag, records []models.CategoryResult) error
	DeleteGroup(ctx context.Context, identity string, group models.GroupTag) error
	FetchRecommendations(ctx context.Context, identity string) ([]models.RecommendationRecord, error)
	StoreHistory(ctx context.Context, identity string, intents []*models.Intent) error
}

type Client struct {
	client *firestore.Client
	cfg    config.FirestoreConfig
	logger *zap.Logger
}

func NewClient(ctx context.Context, cfg config.FirestoreConfig, logger *zap.Logger) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	logger.Info("record store connected", zap.String("project", cfg.ProjectID))

	return &Client{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func groupCollection(group models.GroupTag) string {
	return "records_" + string(group)
}

// FetchGroup loads every stored record of one group for an identity.
func (c *Client) FetchGroup(ctx context.Context, identity string, group models.GroupTag) ([]models.CategoryResult, error) {
	ctx, span := observability.StartSpan(ctx, "store.fetch_group",
		attribute.String("group", string(group)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	iter := c.client.Collection(groupCollection(group)).
		Where("identity", "==", identity).
		Documents(ctx)
	defer iter.Stop()

	var records []models.CategoryResult
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store fetch %s: %w", group, err)
		}
		var rec models.CategoryResult
		if err := doc.DataTo(&rec); err != nil {
			c.logger.Warn("skipping malformed record",
				zap.String("group", string(group)),
				zap.String("doc_id", doc.Ref.ID),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// StoreGroup writes records in batches, replacing documents with the same id.
func (c *Client) StoreGroup(ctx context.Context, identity string, group models.GroupTag, records []models.CategoryResult) error {
	if len(records) == 0 {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "store.store_group",
		attribute.String("group", string(group)),
		attribute.Int("count", len(records)),
	)
	defer span.End()

	batchSize := c.cfg.MaxBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	collection := c.client.Collection(groupCollection(group))
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}

		// Each batch gets its own timeout so sequential batches don't starve.
		batchCtx, batchCancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		bw := c.client.BulkWriter(batchCtx)
		for _, rec := range records[i:end] {
			doc := collection.Doc(rec.ID.String())
			if _, err := bw.Set(doc, map[string]any{
				"identity":        identity,
				"id":              rec.ID.String(),
				"parent_category": rec.ParentCategory,
				"rating":          rec.Rating,
				"section":         string(rec.Section),
				"list":            rec.List,
			}); err != nil {
				bw.End()
				batchCancel()
				return fmt.Errorf("store write %s batch %d: %w", group, i/batchSize, err)
			}
		}
		bw.End()
		batchCancel()
	}
	return nil
}

// DeleteGroup removes every record of one group for an identity.
func (c *Client) DeleteGroup(ctx context.Context, identity string, group models.GroupTag) error {
	ctx, span := observability.StartSpan(ctx, "store.delete_group",
		attribute.String("group", string(group)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	iter := c.client.Collection(groupCollection(group)).
		Where("identity", "==", identity).
		Documents(ctx)
	defer iter.Stop()

	bw := c.client.BulkWriter(ctx)
	defer bw.End()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("store delete %s: %w", group, err)
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			return fmt.Errorf("store delete %s doc %s: %w", group, doc.Ref.ID, err)
		}
	}
	return nil
}

// FetchRecommendations loads the preference records used to train the
// rating model.
func (c *Client) FetchRecommendations(ctx context.Context, identity string) ([]models.RecommendationRecord, error) {
	ctx, span := observability.StartSpan(ctx, "store.fetch_recommendations")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	iter := c.client.Collection("recommendations").
		Where("identity", "==", identity).
		Documents(ctx)
	defer iter.Stop()

	var records []models.RecommendationRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store fetch recommendations: %w", err)
		}
		var rec models.RecommendationRecord
		if err := doc.DataTo(&rec); err != nil {
			c.logger.Warn("skipping malformed recommendation record",
				zap.String("doc_id", doc.Ref.ID),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// StoreHistory persists the intent history snapshot of one conversation.
func (c *Client) StoreHistory(ctx context.Context, identity string, intents []*models.Intent) error {
	ctx, span := observability.StartSpan(ctx, "store.store_history",
		attribute.Int("count", len(intents)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	captions := make([]map[string]any, 0, len(intents))
	for i, intent := range intents {
		captions = append(captions, map[string]any{
			"index":   i,
			"id":      intent.ID.String(),
			"caption": intent.Caption,
			"kind":    intent.Kind.String(),
		})
	}

	_, err := c.client.Collection("histories").Doc(identity).Set(ctx, map[string]any{
		"identity":   identity,
		"intents":    captions,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("store history: %w", err)
	}
	return nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	iter := c.client.Collection("_health_check").Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	// iterator.Done means the collection is empty, so Firestore is reachable.
	if err != nil && err != iterator.Done {
		return fmt.Errorf("record store health check: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
