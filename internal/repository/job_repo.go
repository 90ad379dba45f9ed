package repository

import (
	"context"
	"time"

	"github.com/timmy/memeverse/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository persists ingest jobs and the sources they read from.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
func (r *JobRepository) Create(ctx context.Context, job *domain.IngestJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Save writes every field of job.
func (r *JobRepository) Save(ctx context.Context, job *domain.IngestJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.IngestJob, error) {
	var job domain.IngestJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListRecent returns the newest jobs first.
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]domain.IngestJob, error) {
	var jobs []domain.IngestJob
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// TouchSource registers a data source if needed and stamps its last sync time.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: source identifier, also used as its type.
//   - name: human readable source name.
//   - syncedAt: time of the completed sync.
//
// Returns:
//   - error: non-nil if the upsert fails.
func (r *JobRepository) TouchSource(ctx context.Context, id, name string, syncedAt time.Time) error {
	src := &domain.DataSource{
		ID:         id,
		Name:       name,
		Type:       id,
		LastSyncAt: &syncedAt,
		IsEnabled:  true,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "last_sync_at", "updated_at"}),
	}).Create(src).Error
}

// ListSources returns every registered data source.
func (r *JobRepository) ListSources(ctx context.Context) ([]domain.DataSource, error) {
	var sources []domain.DataSource
	if err := r.db.WithContext(ctx).Order("id").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}
