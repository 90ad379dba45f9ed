package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/memeverse/internal/api"
	"github.com/timmy/memeverse/internal/config"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/metrics"
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
	logCfg := logger.LoadFromEnv()
	logCfg.ServiceName = "memeverse-api"
	appLogger := logger.New(logCfg)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH points at the config file in deployments.
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx := context.Background()

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

		embedder := service.NewEmbeddingService(&service.EmbeddingConfig{
			Endpoint:   vi.EmbeddingURL,
			Model:      vi.EmbeddingModel,
			APIKey:     vi.EmbeddingKey,
			Dimensions: vi.Dimensions,
		})
		catalog.WithTitleIndex(titleIndex, embedder, vi.ScoreThreshold)

		appLogger.WithFields(logger.Fields{
			"collection": vi.Collection,
			"model":      vi.EmbeddingModel,
		}).Info("Semantic title search enabled")
	}

	uploadService := service.NewUploadService(memeRepo, imageStore, catalog, appLogger, &service.UploadConfig{
		MaxSizeBytes: cfg.Upload.MaxSizeBytes,
		Formats:      cfg.Upload.Formats,
	})

	captionService := service.NewCaptionService(&service.CaptionConfig{
		Enabled: cfg.Captions.Enabled,
		Model:   cfg.Captions.Model,
		APIKey:  cfg.Captions.APIKey,
		BaseURL: cfg.Captions.BaseURL,
		Timeout: cfg.Captions.Timeout,
	}, appLogger)

	ingestService := service.NewIngestService(memeRepo, jobRepo, imageStore, catalog, appLogger, &service.IngestConfig{
		Workers:   cfg.Ingest.Workers,
		BatchSize: cfg.Ingest.BatchSize,
	})

	sources := map[string]source.Source{
		folder.SourceID: folder.NewAdapter(cfg.Sources.FolderPath),
	}
	if names, err := staging.List(cfg.Sources.StagingPath); err == nil {
		for _, name := range names {
			src := staging.NewAdapter(cfg.Sources.StagingPath, name)
			sources[src.ID()] = src
		}
	}

	if stats, err := catalog.Stats(ctx); err == nil {
		metrics.MemesTotal.Set(float64(stats.ActiveMemes))
	}

	router := api.SetupRouter(&api.Dependencies{
		DB:       db,
		Catalog:  catalog,
		Uploads:  uploadService,
		Captions: captionService,
		Ingest:   ingestService,
		Jobs:     jobRepo,
		Store:    imageStore,
		Sources:  sources,
		Logger:   appLogger,
	}, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
