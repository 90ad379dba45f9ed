package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/timmy/memeverse/internal/config"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/repository"
	"github.com/timmy/memeverse/internal/service"
	"github.com/timmy/memeverse/internal/source"
	"github.com/timmy/memeverse/internal/source/folder"
	"github.com/timmy/memeverse/internal/source/staging"
	"github.com/timmy/memeverse/internal/storage"
)

type bucketEnsurer interface {
	EnsureBucket(ctx context.Context) error
}

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "memeverse-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	sourceName := flag.String("source", folder.SourceID, `Source to seed from: "folder" or "staging:<name>"`)
	limit := flag.Int("limit", 100, "Maximum number of items to ingest")
	force := flag.Bool("force", false, "Re-process items that already exist")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	sources := map[string]source.Source{
		folder.SourceID: folder.NewAdapter(cfg.Sources.FolderPath),
	}
	names, err := staging.List(cfg.Sources.StagingPath)
	if err != nil {
		appLogger.WithError(err).Warn("Failed to list staging sources")
	}
	for _, name := range names {
		src := staging.NewAdapter(cfg.Sources.StagingPath, name)
		sources[src.ID()] = src
	}

	src, ok := sources[*sourceName]
	if !ok {
		known := make([]string, 0, len(sources))
		for id := range sources {
			known = append(known, id)
		}
		sort.Strings(known)
		appLogger.WithFields(logger.Fields{
			logger.FieldSource: *sourceName,
			"available":        strings.Join(known, ","),
		}).Fatal("Unknown source")
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldSource: src.ID(),
		"limit":            *limit,
		"force":            *force,
	}).Info("Starting ingestion")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	memeRepo := repository.NewMemeRepository(db)
	jobRepo := repository.NewJobRepository(db)

	imageStore, err := storage.New(&cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}
	if b, ok := imageStore.(bucketEnsurer); ok {
		if err := b.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	}

	catalog := service.NewCatalogService(memeRepo, appLogger, &service.CatalogConfig{
		DefaultLimit:  cfg.Search.DefaultLimit,
		TrendingLimit: cfg.Search.TrendingLimit,
	})

	// Seeded titles are indexed as they land so semantic search sees them.
	if vi := cfg.Search.VectorIndex; vi.Enabled {
		titleIndex, err := repository.NewTitleIndex(&repository.TitleIndexConfig{
			Host:       vi.Host,
			Port:       vi.Port,
			Collection: vi.Collection,
			APIKey:     vi.APIKey,
			UseTLS:     vi.UseTLS,
			Dimension:  vi.Dimensions,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize title index")
		}
		defer titleIndex.Close()

		if err := titleIndex.EnsureCollection(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure title collection")
		}
		catalog.WithTitleIndex(titleIndex, service.NewEmbeddingService(&service.EmbeddingConfig{
			Endpoint:   vi.EmbeddingURL,
			Model:      vi.EmbeddingModel,
			APIKey:     vi.EmbeddingKey,
			Dimensions: vi.Dimensions,
		}), vi.ScoreThreshold)
	}

	ingestService := service.NewIngestService(memeRepo, jobRepo, imageStore, catalog, appLogger, &service.IngestConfig{
		Workers:   cfg.Ingest.Workers,
		BatchSize: cfg.Ingest.BatchSize,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		appLogger.Info("Received shutdown signal, cancelling...")
		cancel()
	}()

	stats, err := ingestService.IngestFromSource(ctx, src, *limit, &service.IngestOptions{Force: *force})
	if err != nil {
		appLogger.WithError(err).Fatal("Ingestion failed")
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldJobID:      stats.JobID,
		"total":                stats.TotalItems,
		"processed":            stats.ProcessedItems,
		"skipped":              stats.SkippedItems,
		"failed":               stats.FailedItems,
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
	}).Info("Ingestion completed")
}
