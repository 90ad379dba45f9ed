package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/memeverse/internal/domain"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/metrics"
	"github.com/timmy/memeverse/internal/repository"
	"github.com/timmy/memeverse/internal/source"
	"github.com/timmy/memeverse/internal/storage"
	"gorm.io/gorm"
)

// IngestService seeds the catalog from a Source with a pool of workers.
type IngestService struct {
	memeRepo  *repository.MemeRepository
	jobRepo   *repository.JobRepository
	store     storage.ImageStore
	catalog   *CatalogService
	logger    *logger.Logger
	workers   int
	batchSize int
}

// IngestConfig holds configuration for the ingest service.
type IngestConfig struct {
	Workers   int
	BatchSize int
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	memeRepo *repository.MemeRepository,
	jobRepo *repository.JobRepository,
	store storage.ImageStore,
	catalog *CatalogService,
	log *logger.Logger,
	cfg *IngestConfig,
) *IngestService {
	workers, batchSize := 4, 20
	if cfg != nil && cfg.Workers > 0 {
		workers = cfg.Workers
	}
	if cfg != nil && cfg.BatchSize > 0 {
		batchSize = cfg.BatchSize
	}
	return &IngestService{
		memeRepo:  memeRepo,
		jobRepo:   jobRepo,
		store:     store,
		catalog:   catalog,
		logger:    log,
		workers:   workers,
		batchSize: batchSize,
	}
}

func (s *IngestService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// IngestStats holds statistics for an ingestion run.
type IngestStats struct {
	JobID          string    `json:"job_id"`
	TotalItems     int64     `json:"total_items"`
	ProcessedItems int64     `json:"processed_items"`
	SkippedItems   int64     `json:"skipped_items"`
	FailedItems    int64     `json:"failed_items"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
}

// IngestOptions holds options for ingestion.
type IngestOptions struct {
	Force bool // re-process items that already exist
}

type processResult struct {
	sourceID string
	skipped  bool
	err      error
}

var errSkipDuplicate = errors.New("skipped: duplicate MD5")

// IngestFromSource seeds up to limit items from src and records the run as an IngestJob.
// Parameters:
//   - ctx: context for cancellation; a cancelled run stops fetching and drains workers.
//   - src: item source.
//   - limit: maximum number of items to fetch.
//   - opts: ingestion options, nil for defaults.
//
// Returns:
//   - *IngestStats: counters for the run.
//   - error: non-nil only if the job record cannot be written.
func (s *IngestService) IngestFromSource(ctx context.Context, src source.Source, limit int, opts *IngestOptions) (*IngestStats, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	started := time.Now()
	job := &domain.IngestJob{
		ID:        uuid.New().String(),
		SourceID:  src.ID(),
		Status:    domain.JobStatusRunning,
		StartedAt: &started,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create ingest job: %w", err)
	}

	ctx = logger.SetJobID(ctx, job.ID)
	stats := &IngestStats{JobID: job.ID, StartTime: started}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldSource: src.ID(),
		"limit":            limit,
		"force":            opts.Force,
	}).Info("Starting ingestion")

	itemsChan := make(chan source.MemeItem, s.workers*2)
	resultsChan := make(chan *processResult, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, src.ID(), itemsChan, resultsChan, opts)
		}()
	}

	var errLog []string
	done := make(chan struct{})
	go func() {
		for result := range resultsChan {
			atomic.AddInt64(&stats.ProcessedItems, 1)
			switch {
			case result.skipped:
				atomic.AddInt64(&stats.SkippedItems, 1)
				metrics.IngestItemsTotal.WithLabelValues("skipped").Inc()
			case result.err != nil:
				atomic.AddInt64(&stats.FailedItems, 1)
				metrics.IngestItemsTotal.WithLabelValues("failed").Inc()
				if len(errLog) < 20 {
					errLog = append(errLog, result.sourceID+": "+result.err.Error())
				}
				s.log(ctx).WithField("source_id", result.sourceID).WithError(result.err).Error("Failed to process item")
			default:
				metrics.IngestItemsTotal.WithLabelValues("processed").Inc()
			}
		}
		close(done)
	}()

	fetchErr := s.feed(ctx, src, limit, itemsChan, stats)

	close(itemsChan)
	wg.Wait()
	close(resultsChan)
	<-done

	stats.EndTime = time.Now()

	job.TotalItems = int(stats.TotalItems)
	job.ProcessedItems = int(stats.ProcessedItems)
	job.SkippedItems = int(stats.SkippedItems)
	job.FailedItems = int(stats.FailedItems)
	job.CompletedAt = &stats.EndTime
	job.Status = domain.JobStatusCompleted
	if fetchErr != nil {
		job.Status = domain.JobStatusFailed
		errLog = append([]string{fetchErr.Error()}, errLog...)
	}
	job.ErrorLog = strings.Join(errLog, "\n")

	// The run context may be cancelled by now; the bookkeeping still has to land.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.jobRepo.Save(saveCtx, job); err != nil {
		s.log(ctx).WithError(err).Error("Failed to save ingest job")
	}
	if fetchErr == nil {
		if err := s.jobRepo.TouchSource(saveCtx, src.ID(), src.DisplayName(), stats.EndTime); err != nil {
			s.log(ctx).WithError(err).Warn("Failed to update data source")
		}
	}

	logger.With(logger.Fields{
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"skipped":   stats.SkippedItems,
		"failed":    stats.FailedItems,
	}).WithDuration(stats.EndTime.Sub(stats.StartTime).Milliseconds()).Info(ctx, "Ingestion completed")

	return stats, nil
}

// feed pages through src and hands items to the workers until limit is reached.
func (s *IngestService) feed(ctx context.Context, src source.Source, limit int, items chan<- source.MemeItem, stats *IngestStats) error {
	cursor := ""
	fetched := 0
	for fetched < limit {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		batchLimit := s.batchSize
		if remaining := limit - fetched; batchLimit > remaining {
			batchLimit = remaining
		}

		batch, next, err := src.FetchBatch(ctx, cursor, batchLimit)
		if err != nil {
			s.log(ctx).WithError(err).Error("Failed to fetch batch")
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		atomic.AddInt64(&stats.TotalItems, int64(len(batch)))
		fetched += len(batch)

		for _, item := range batch {
			select {
			case items <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if next == "" {
			return nil
		}
		cursor = next
	}
	return nil
}

func (s *IngestService) worker(ctx context.Context, sourceType string, items <-chan source.MemeItem, results chan<- *processResult, opts *IngestOptions) {
	for item := range items {
		if ctx.Err() != nil {
			return
		}

		result := &processResult{sourceID: item.SourceID}
		_, err := s.memeRepo.GetBySourceID(ctx, sourceType, item.SourceID)
		switch {
		case err == nil && !opts.Force:
			result.skipped = true
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			result.err = fmt.Errorf("failed to check existence: %w", err)
		default:
			if err := s.processItem(ctx, sourceType, &item, opts); err != nil {
				if errors.Is(err, errSkipDuplicate) {
					result.skipped = true
				} else {
					result.err = err
				}
			}
		}
		results <- result
	}
}

func (s *IngestService) processItem(ctx context.Context, sourceType string, item *source.MemeItem, opts *IngestOptions) error {
	data, err := os.ReadFile(item.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	info, err := inspectImage(data)
	if err != nil {
		return err
	}

	if !opts.Force {
		exists, err := s.memeRepo.ExistsByMD5Hash(ctx, info.MD5)
		if err != nil {
			return fmt.Errorf("failed to check MD5: %w", err)
		}
		if exists {
			return errSkipDuplicate
		}
	}

	key := storageKey(info.MD5, info.Format)
	inStore, err := s.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check storage existence: %w", err)
	}
	uploaded := false
	if !inStore {
		if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.ContentType(info.Format)); err != nil {
			return fmt.Errorf("failed to upload to storage: %w", err)
		}
		uploaded = true
	}

	name := item.Name
	if name == "" {
		name = domain.TitleFromFilename(item.LocalPath)
	}

	now := time.Now()
	meme := &domain.Meme{
		ID:         memeIDFor(sourceType, item.SourceID),
		Name:       name,
		SourceType: sourceType,
		SourceID:   item.SourceID,
		StorageKey: key,
		URL:        s.store.URL(key),
		Width:      info.Width,
		Height:     info.Height,
		Format:     info.Format,
		IsAnimated: item.IsAnimated || info.Format == "gif",
		FileSize:   int64(len(data)),
		MD5Hash:    info.MD5,
		Tags:       item.Tags,
		Category:   item.Category,
		Likes:      item.Likes,
		Comments:   domain.StringArray{},
		Status:     domain.MemeStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.memeRepo.Upsert(ctx, meme); err != nil {
		if uploaded {
			if delErr := s.store.Delete(ctx, key); delErr != nil {
				s.log(ctx).WithField("storage_key", key).WithError(delErr).Error("Failed to rollback storage upload")
			}
		}
		return fmt.Errorf("failed to save to database: %w", err)
	}

	if err := s.catalog.IndexTitle(ctx, meme); err != nil {
		s.log(ctx).WithField(logger.FieldMemeID, meme.ID).WithError(err).Warn("Failed to index meme title")
	}
	return nil
}
