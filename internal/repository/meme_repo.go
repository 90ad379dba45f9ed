package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/timmy/memeverse/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Feed categories understood by List in addition to stored category names.
const (
	FeedTrending = "trending"
	FeedNew      = "new"
	FeedClassic  = "classic"
	FeedRandom   = "random"
)

// Sort keys understood by List.
const (
	SortByLikes    = "likes"
	SortByDate     = "date"
	SortByComments = "comments"
)

// ListFilter selects a page of the catalog.
type ListFilter struct {
	Category string
	SortBy   string
	Limit    int
	Offset   int
}

// MemeRepository handles meme data operations.
type MemeRepository struct {
	db *gorm.DB
}

// NewMemeRepository creates a new MemeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *MemeRepository: repository instance bound to db.
func NewMemeRepository(db *gorm.DB) *MemeRepository {
	return &MemeRepository{db: db}
}

// Create inserts a new meme record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - meme: meme record to persist.
//
// Returns:
//   - error: non-nil if the insert fails.
func (r *MemeRepository) Create(ctx context.Context, meme *domain.Meme) error {
	meme.CommentCount = len(meme.Comments)
	return r.db.WithContext(ctx).Create(meme).Error
}

// Upsert creates or updates a meme record keyed by its source fields.
// Engagement columns (likes, comments) are left alone on conflict so that
// re-seeding never wipes user activity.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - meme: meme record to create or update.
//
// Returns:
//   - error: non-nil if the upsert fails.
func (r *MemeRepository) Upsert(ctx context.Context, meme *domain.Meme) error {
	meme.CommentCount = len(meme.Comments)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_type"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "storage_key", "url", "width", "height", "format",
			"is_animated", "file_size", "md5_hash", "tags", "category", "updated_at",
		}),
	}).Create(meme).Error
}

// GetByID retrieves an active meme by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme ID.
//
// Returns:
//   - *domain.Meme: meme record if found.
//   - error: gorm.ErrRecordNotFound when missing.
func (r *MemeRepository) GetByID(ctx context.Context, id string) (*domain.Meme, error) {
	var meme domain.Meme
	if err := r.db.WithContext(ctx).
		Where("status = ?", domain.MemeStatusActive).
		First(&meme, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &meme, nil
}

// ExistsByMD5Hash checks if a meme with the given MD5 hash exists.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - md5Hash: MD5 hash of the image content.
//
// Returns:
//   - bool: true if a record exists.
//   - error: non-nil if the lookup fails.
func (r *MemeRepository) ExistsByMD5Hash(ctx context.Context, md5Hash string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Meme{}).Where("md5_hash = ?", md5Hash).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetBySourceID retrieves a meme by source type and source ID.
func (r *MemeRepository) GetBySourceID(ctx context.Context, sourceType, sourceID string) (*domain.Meme, error) {
	var meme domain.Meme
	if err := r.db.WithContext(ctx).First(&meme, "source_type = ? AND source_id = ?", sourceType, sourceID).Error; err != nil {
		return nil, err
	}
	return &meme, nil
}

// List returns one page of active memes plus the total matching count.
// Category is either a feed (trending, new, classic, random) or a stored
// category name. SortBy, when set, overrides the feed's natural order except
// for the random feed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - f: category, sort key and page window.
//
// Returns:
//   - []domain.Meme: page of memes.
//   - int64: total matching memes.
//   - error: non-nil if the query fails.
func (r *MemeRepository) List(ctx context.Context, f ListFilter) ([]domain.Meme, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Meme{}).Where("status = ?", domain.MemeStatusActive)

	order := orderFor(f.SortBy)
	switch f.Category {
	case "", FeedTrending:
		if f.SortBy == "" {
			order = orderFor(SortByLikes)
		}
	case FeedNew:
		if f.SortBy == "" {
			order = orderFor(SortByDate)
		}
	case FeedClassic:
		if f.SortBy == "" {
			order = "created_at ASC, id ASC"
		}
	case FeedRandom:
		order = "RANDOM()"
	default:
		query = query.Where("category = ?", f.Category)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count memes: %w", err)
	}

	var memes []domain.Meme
	if err := query.Order(order).Limit(f.Limit).Offset(f.Offset).Find(&memes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list memes: %w", err)
	}
	return memes, total, nil
}

func orderFor(sortBy string) string {
	switch sortBy {
	case SortByDate:
		return "created_at DESC, id ASC"
	case SortByComments:
		return "comment_count DESC, COALESCE(likes, 0) DESC, id ASC"
	default:
		return "COALESCE(likes, 0) DESC, created_at DESC, id ASC"
	}
}

// Search finds active memes whose name or tags contain query, case-insensitively.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - query: search text.
//   - limit: maximum number of results.
//
// Returns:
//   - []domain.Meme: matches, most liked first.
//   - error: non-nil if the query fails.
func (r *MemeRepository) Search(ctx context.Context, query string, limit int) ([]domain.Meme, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	var memes []domain.Meme
	if err := r.db.WithContext(ctx).
		Where("status = ?", domain.MemeStatusActive).
		Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(tags) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order(orderFor(SortByLikes)).
		Limit(limit).
		Find(&memes).Error; err != nil {
		return nil, fmt.Errorf("failed to search memes: %w", err)
	}
	return memes, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Trending returns the most liked active memes.
func (r *MemeRepository) Trending(ctx context.Context, limit int) ([]domain.Meme, error) {
	var memes []domain.Meme
	if err := r.db.WithContext(ctx).
		Where("status = ?", domain.MemeStatusActive).
		Order(orderFor(SortByLikes)).
		Limit(limit).
		Find(&memes).Error; err != nil {
		return nil, fmt.Errorf("failed to get trending memes: %w", err)
	}
	return memes, nil
}

// IncrementLikes adds one like to a meme; a meme without likes ends up with one.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme ID.
//
// Returns:
//   - int: like count after the increment.
//   - error: gorm.ErrRecordNotFound when the meme does not exist.
func (r *MemeRepository) IncrementLikes(ctx context.Context, id string) (int, error) {
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Meme{}).
			Where("id = ? AND status = ?", id, domain.MemeStatusActive).
			Update("likes", gorm.Expr("COALESCE(likes, 0) + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&domain.Meme{}).Where("id = ?", id).Select("likes").Scan(&likes).Error
	})
	if err != nil {
		return 0, err
	}
	return likes, nil
}

// AppendComment adds text to the end of a meme's comment list.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme ID.
//   - text: comment body, already validated.
//
// Returns:
//   - []string: full comment list after the append.
//   - error: gorm.ErrRecordNotFound when the meme does not exist.
func (r *MemeRepository) AppendComment(ctx context.Context, id, text string) ([]string, error) {
	var comments domain.StringArray
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meme domain.Meme
		if err := tx.Select("id", "comments").
			Where("status = ?", domain.MemeStatusActive).
			First(&meme, "id = ?", id).Error; err != nil {
			return err
		}
		comments = append(meme.Comments, text)
		return tx.Model(&domain.Meme{}).Where("id = ?", id).Updates(map[string]interface{}{
			"comments":      comments,
			"comment_count": len(comments),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// GetCategories retrieves all distinct stored categories of active memes.
func (r *MemeRepository) GetCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.WithContext(ctx).
		Model(&domain.Meme{}).
		Where("status = ? AND category <> ''", domain.MemeStatusActive).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CountByStatus counts memes by status.
func (r *MemeRepository) CountByStatus(ctx context.Context, status domain.MemeStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Meme{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumLikes returns the total like count across active memes.
func (r *MemeRepository) SumLikes(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Meme{}).
		Where("status = ?", domain.MemeStatusActive).
		Select("COALESCE(SUM(likes), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetByIDs retrieves active memes by a list of IDs, in no particular order.
func (r *MemeRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Meme, error) {
	if len(ids) == 0 {
		return []domain.Meme{}, nil
	}
	var memes []domain.Meme
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, domain.MemeStatusActive).
		Find(&memes).Error; err != nil {
		return nil, fmt.Errorf("failed to get memes by IDs: %w", err)
	}
	return memes, nil
}
