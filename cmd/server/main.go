package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/knowplaces/placeflow/internal/analytics"
	"github.com/knowplaces/placeflow/internal/api"
	"github.com/knowplaces/placeflow/internal/cache"
	"github.com/knowplaces/placeflow/internal/config"
	"github.com/knowplaces/placeflow/internal/geocode"
	"github.com/knowplaces/placeflow/internal/observability"
	"github.com/knowplaces/placeflow/internal/orchestrator"
	"github.com/knowplaces/placeflow/internal/places"
	"github.com/knowplaces/placeflow/internal/sections"
	"github.com/knowplaces/placeflow/internal/store"
	"github.com/knowplaces/placeflow/internal/tagging"
	"github.com/knowplaces/placeflow/internal/taxonomy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting turn pipeline service",
		zap.String("service", cfg.Observability.ServiceName),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	tracerShutdown, err := observability.InitTracer(ctx, cfg.Observability.ServiceName, cfg.Observability.TraceSampleRate)
	if err != nil {
		logger.Warn("tracing initialization failed, continuing without tracing", zap.Error(err))
	}

	// Load the category taxonomy
	tax, err := taxonomy.Load(cfg.Taxonomy.Path, cfg.Taxonomy.Workers, logger)
	if err != nil {
		return fmt.Errorf("loading taxonomy: %w", err)
	}
	defer tax.Close()
	logger.Info("taxonomy loaded")

	// Build the tagger over the taxonomy vocabulary
	var categoryNames []string
	for _, e := range tax.Entries() {
		categoryNames = append(categoryNames, e.Parent)
		for _, s := range e.Subcategories {
			categoryNames = append(categoryNames, s.Name)
		}
	}
	gazetteer := tagging.NewWordSetGazetteer(categoryNames, tagging.DefaultTastes(), tagging.DefaultPlaceWords())
	lexicon := tagging.NewWordSetLexicon(nil, tagging.DefaultAdjectives())
	tagger := tagging.NewCompositeTagger(gazetteer, lexicon)

	// Optional classifier collaborators; either failing degrades to defaults
	var textClassifier orchestrator.TextClassifier
	if model, err := sections.Load(cfg.Classifier.ModelPath, logger); err != nil {
		logger.Warn("section model load failed, section labels will default", zap.Error(err))
	} else {
		textClassifier = model
	}

	var dictionary orchestrator.Dictionary
	if dict, err := tagging.LoadDictionary(cfg.Classifier.DictionaryPath); err != nil {
		logger.Warn("dictionary load failed, dictionary signal disabled", zap.Error(err))
	} else {
		dictionary = dict
	}

	// Initialize clients
	redisCache, err := cache.NewRedisCache(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("initializing redis: %w", err)
	}
	defer redisCache.Close()
	logger.Info("redis cache initialized")

	placesClient := places.NewClient(cfg.Places, cfg.Pipeline, logger)
	logger.Info("places client initialized")

	geocoder, err := geocode.NewClient(cfg.Geocoder, logger)
	if err != nil {
		return fmt.Errorf("initializing geocoder: %w", err)
	}
	logger.Info("geocoder initialized")

	var chClient *analytics.Client
	chClient, err = analytics.NewClient(cfg.ClickHouse, logger)
	if err != nil {
		logger.Warn("clickhouse initialization failed, analytics will be unavailable", zap.Error(err))
		chClient = nil
	} else {
		defer chClient.Close()
		if err := chClient.EnsureTables(ctx); err != nil {
			logger.Warn("clickhouse table creation failed", zap.Error(err))
		}
		logger.Info("clickhouse client initialized")
	}

	var records store.RecordStore
	if cfg.Firestore.ProjectID != "" {
		fsClient, err := store.NewClient(ctx, cfg.Firestore, logger)
		if err != nil {
			logger.Warn("firestore initialization failed, stored records will be unavailable", zap.Error(err))
		} else {
			defer fsClient.Close()
			records = fsClient
			logger.Info("firestore client initialized")
		}
	}

	reporter := analytics.NewReporter(cfg.Kafka, logger)
	defer reporter.Close()

	// Analytics ingest: consume published turn events into ClickHouse
	var consumer *analytics.Consumer
	if chClient != nil {
		consumer = analytics.NewConsumer(cfg.Kafka, chClient, logger)
		if err := consumer.Start(ctx); err != nil {
			logger.Warn("analytics consumer start failed, ingest will be unavailable", zap.Error(err))
		} else {
			defer consumer.Stop()
			logger.Info("analytics consumer started")
		}
	}

	// Initialize slow turn detector
	var analyticsWriter observability.AnalyticsWriter
	if chClient != nil {
		analyticsWriter = chClient
	}
	slowTurnDetector := observability.NewSlowTurnDetector(
		cfg.Pipeline.SlowTurn.WarningThreshold,
		cfg.Pipeline.SlowTurn.CriticalThreshold,
		logger,
		analyticsWriter,
	)

	// Initialize the turn pipeline
	classifier, err := orchestrator.NewIntentClassifier(
		tax, textClassifier, dictionary, reporter,
		cfg.Pipeline.SectionCacheEntries, logger,
	)
	if err != nil {
		return fmt.Errorf("initializing classifier: %w", err)
	}
	extractor := orchestrator.NewParameterExtractor(tax, tagger)

	orch := orchestrator.New(
		classifier, extractor, placesClient, geocoder, records,
		redisCache, reporter, slowTurnDetector, cfg.Pipeline, logger,
	)

	// Initialize HTTP server
	var stats api.StatsSource
	if chClient != nil {
		stats = chClient
	}
	handler := api.NewHandler(orch, stats, logger)

	healthHandler := api.NewHealthHandler(logger)
	healthHandler.Register("redis", redisCache)
	healthHandler.Register("kafka", reporter)
	if chClient != nil {
		healthHandler.Register("clickhouse", chClient)
	}
	if fs, ok := records.(*store.Client); ok && fs != nil {
		healthHandler.Register("firestore", fs)
	}

	router := api.NewRouter(handler, healthHandler, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	// Graceful shutdown
	logger.Info("starting graceful shutdown", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new requests
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	// Cancel background operations
	cancel()

	// Shutdown tracing
	if tracerShutdown != nil {
		if err := tracerShutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown error", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
	return nil
}
