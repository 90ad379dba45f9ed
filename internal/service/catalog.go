package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/timmy/memeverse/internal/domain"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/repository"
	"gorm.io/gorm"
)

const maxPageSize = 100

// TitleIndex stores and searches meme title vectors.
type TitleIndex interface {
	Upsert(ctx context.Context, vector []float32, payload repository.TitlePayload) error
	Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]repository.TitleMatch, error)
}

// Embedder turns text into vectors for the title index.
type Embedder interface {
	EmbedPassage(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CatalogConfig holds listing limits.
type CatalogConfig struct {
	DefaultLimit  int
	TrendingLimit int
}

// CatalogService serves listing, search, detail, like and comment operations.
type CatalogService struct {
	memeRepo *repository.MemeRepository
	logger   *logger.Logger
	cfg      CatalogConfig

	titles   TitleIndex
	embedder Embedder
	minScore float32
}

// NewCatalogService creates a new catalog service.
// Parameters:
//   - memeRepo: meme repository.
//   - log: service logger.
//   - cfg: page size defaults.
//
// Returns:
//   - *CatalogService: service without a title index; see WithTitleIndex.
func NewCatalogService(memeRepo *repository.MemeRepository, log *logger.Logger, cfg *CatalogConfig) *CatalogService {
	c := CatalogConfig{DefaultLimit: 20, TrendingLimit: 12}
	if cfg != nil {
		if cfg.DefaultLimit > 0 {
			c.DefaultLimit = cfg.DefaultLimit
		}
		if cfg.TrendingLimit > 0 {
			c.TrendingLimit = cfg.TrendingLimit
		}
	}
	return &CatalogService{memeRepo: memeRepo, logger: log, cfg: c}
}

// WithTitleIndex enables semantic title search. Substring search stays the fallback.
func (s *CatalogService) WithTitleIndex(index TitleIndex, embedder Embedder, minScore float32) *CatalogService {
	s.titles = index
	s.embedder = embedder
	s.minScore = minScore
	return s
}

func (s *CatalogService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// ListParams selects one page of a feed.
type ListParams struct {
	Category string
	SortBy   string
	Page     int
	Limit    int
}

// ListResult is one page of memes.
type ListResult struct {
	Memes []domain.Meme
	Total int64
	Page  int
	Limit int
}

// List returns one page of a feed or stored category.
func (s *CatalogService) List(ctx context.Context, p ListParams) (*ListResult, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := s.clampLimit(p.Limit)

	start := time.Now()
	memes, total, err := s.memeRepo.List(ctx, repository.ListFilter{
		Category: strings.ToLower(strings.TrimSpace(p.Category)),
		SortBy:   p.SortBy,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	logger.With(logger.Fields{"category": p.Category, "page": page}).
		WithCount(len(memes)).
		WithDuration(time.Since(start).Milliseconds()).
		Debug(ctx, "Listed memes")

	return &ListResult{Memes: memes, Total: total, Page: page, Limit: limit}, nil
}

func (s *CatalogService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// Search finds memes by title. With a title index configured the semantic
// hits come first; any index failure or empty result falls back to substring matching.
func (s *CatalogService) Search(ctx context.Context, query string, limit int) ([]domain.Meme, error) {
	query = strings.TrimSpace(query)
	limit = s.clampLimit(limit)
	if query == "" {
		return []domain.Meme{}, nil
	}

	if s.titles != nil && s.embedder != nil {
		memes, err := s.semanticSearch(ctx, query, limit)
		if err == nil && len(memes) > 0 {
			return memes, nil
		}
		if err != nil {
			s.log(ctx).WithError(err).Warn("Semantic title search failed, falling back to substring search")
		}
	}

	return s.memeRepo.Search(ctx, query, limit)
}

func (s *CatalogService) semanticSearch(ctx context.Context, query string, limit int) ([]domain.Meme, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.titles.Search(ctx, vector, limit, s.minScore)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]string, len(matches))
	rank := make(map[string]int, len(matches))
	for i, m := range matches {
		ids[i] = m.MemeID
		rank[m.MemeID] = i
	}

	memes, err := s.memeRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(memes, func(i, j int) bool {
		return rank[memes[i].ID] < rank[memes[j].ID]
	})
	return memes, nil
}

// IndexTitle adds a meme title to the title index. A no-op without an index.
func (s *CatalogService) IndexTitle(ctx context.Context, meme *domain.Meme) error {
	if s.titles == nil || s.embedder == nil {
		return nil
	}
	vector, err := s.embedder.EmbedPassage(ctx, meme.Name)
	if err != nil {
		return fmt.Errorf("failed to embed title: %w", err)
	}
	return s.titles.Upsert(ctx, vector, repository.TitlePayload{
		MemeID:   meme.ID,
		Name:     meme.Name,
		Category: meme.Category,
	})
}

// Trending returns the most liked memes.
func (s *CatalogService) Trending(ctx context.Context) ([]domain.Meme, error) {
	return s.memeRepo.Trending(ctx, s.cfg.TrendingLimit)
}

// Detail returns one meme.
func (s *CatalogService) Detail(ctx context.Context, id string) (*domain.Meme, error) {
	meme, err := s.memeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return meme, nil
}

// Like adds one like and returns the new aggregate count.
func (s *CatalogService) Like(ctx context.Context, id string) (int, error) {
	likes, err := s.memeRepo.IncrementLikes(ctx, id)
	if err != nil {
		return 0, notFound(err)
	}
	s.log(ctx).WithFields(logger.Fields{logger.FieldMemeID: id, "likes": likes}).Debug("Meme liked")
	return likes, nil
}

// Comment appends a trimmed comment and returns the full list.
func (s *CatalogService) Comment(ctx context.Context, id, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	comments, err := s.memeRepo.AppendComment(ctx, id, text)
	if err != nil {
		return nil, notFound(err)
	}
	return comments, nil
}

// Categories lists the stored categories.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.memeRepo.GetCategories(ctx)
}

// Stats summarizes the catalog.
type Stats struct {
	ActiveMemes int64 `json:"active_memes"`
	HiddenMemes int64 `json:"hidden_memes"`
	TotalLikes  int64 `json:"total_likes"`
	Categories  int   `json:"categories"`
}

// Stats collects catalog counters.
func (s *CatalogService) Stats(ctx context.Context) (*Stats, error) {
	active, err := s.memeRepo.CountByStatus(ctx, domain.MemeStatusActive)
	if err != nil {
		return nil, err
	}
	hidden, err := s.memeRepo.CountByStatus(ctx, domain.MemeStatusHidden)
	if err != nil {
		return nil, err
	}
	likes, err := s.memeRepo.SumLikes(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.memeRepo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{ActiveMemes: active, HiddenMemes: hidden, TotalLikes: likes, Categories: len(categories)}, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMemeNotFound
	}
	return err
}
