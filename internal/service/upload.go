package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timmy/memeverse/internal/domain"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/repository"
	"github.com/timmy/memeverse/internal/storage"
	"gorm.io/gorm"
)

// UploadConfig holds upload limits.
type UploadConfig struct {
	MaxSizeBytes int64
	Formats      []string
}

// UploadService accepts user images, stores them and registers them as memes.
type UploadService struct {
	memeRepo *repository.MemeRepository
	store    storage.ImageStore
	catalog  *CatalogService
	logger   *logger.Logger
	maxSize  int64
	formats  map[string]bool
}

// NewUploadService creates a new upload service.
// Parameters:
//   - memeRepo: meme repository.
//   - store: object storage for image binaries.
//   - catalog: used to index titles of new memes.
//   - log: service logger.
//   - cfg: size and format limits; defaults are 5 MiB and jpg/png/gif.
//
// Returns:
//   - *UploadService: initialized service.
func NewUploadService(memeRepo *repository.MemeRepository, store storage.ImageStore, catalog *CatalogService, log *logger.Logger, cfg *UploadConfig) *UploadService {
	maxSize := int64(5 * 1024 * 1024)
	formats := []string{"jpeg", "jpg", "png", "gif"}
	if cfg != nil {
		if cfg.MaxSizeBytes > 0 {
			maxSize = cfg.MaxSizeBytes
		}
		if len(cfg.Formats) > 0 {
			formats = cfg.Formats
		}
	}

	allowed := make(map[string]bool, len(formats))
	for _, f := range formats {
		f = strings.ToLower(f)
		if f == "jpeg" {
			f = "jpg"
		}
		allowed[f] = true
	}

	return &UploadService{
		memeRepo: memeRepo,
		store:    store,
		catalog:  catalog,
		logger:   log,
		maxSize:  maxSize,
		formats:  allowed,
	}
}

func (s *UploadService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// MaxSize returns the upload size limit in bytes.
func (s *UploadService) MaxSize() int64 {
	return s.maxSize
}

// Upload validates data, stores it and registers a user-uploaded meme.
// The same image uploaded twice resolves to the first meme.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filename: client file name, used for the title when name is empty.
//   - name: explicit title, may be empty.
//   - data: image bytes.
//
// Returns:
//   - *domain.Meme: the registered meme.
//   - error: wraps ErrInvalidImage for rejected input.
func (s *UploadService) Upload(ctx context.Context, filename, name string, data []byte) (*domain.Meme, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidImage)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidImage, s.maxSize)
	}

	info, err := inspectImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if !s.formats[info.Format] {
		return nil, fmt.Errorf("%w: format %s is not accepted", ErrInvalidImage, info.Format)
	}

	existing, err := s.memeRepo.GetBySourceID(ctx, domain.SourceTypeUpload, info.MD5)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing upload: %w", err)
	}

	key := storageKey(info.MD5, info.Format)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.ContentType(info.Format)); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	title := strings.TrimSpace(name)
	if title == "" {
		title = domain.TitleFromFilename(filename)
	}
	if title == "" {
		title = "Untitled"
	}

	zero := 0
	now := time.Now()
	meme := &domain.Meme{
		ID:         memeIDFor(domain.SourceTypeUpload, info.MD5),
		Name:       title,
		SourceType: domain.SourceTypeUpload,
		SourceID:   info.MD5,
		StorageKey: key,
		URL:        s.store.URL(key),
		Width:      info.Width,
		Height:     info.Height,
		Format:     info.Format,
		IsAnimated: info.Format == "gif",
		FileSize:   int64(len(data)),
		MD5Hash:    info.MD5,
		Category:   domain.CategoryUserUploaded,
		Likes:      &zero,
		Comments:   domain.StringArray{},
		Status:     domain.MemeStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.memeRepo.Create(ctx, meme); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log(ctx).WithField("storage_key", key).WithError(delErr).Error("Failed to roll back stored image")
		}
		return nil, fmt.Errorf("failed to register meme: %w", err)
	}

	if err := s.catalog.IndexTitle(ctx, meme); err != nil {
		s.log(ctx).WithField(logger.FieldMemeID, meme.ID).WithError(err).Warn("Failed to index meme title")
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldMemeID: meme.ID,
		logger.FieldSize:   len(data),
		"format":           info.Format,
	}).Info("Meme uploaded")
	return meme, nil
}
