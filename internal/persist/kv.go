package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/timmy/memeverse/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KV is a string key-value store in the manner of browser local storage.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryKV is a process-local KV.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

type kvEntry struct {
	Key       string `gorm:"type:text;primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string {
	return "client_kv"
}

// SQLiteKV keeps values in a SQLite file so they survive restarts.
type SQLiteKV struct {
	db *gorm.DB
}

// OpenSQLiteKV opens (or creates) the KV file at path.
// Parameters:
//   - path: SQLite file path; ":memory:" for an ephemeral store.
//
// Returns:
//   - *SQLiteKV: store ready for use.
//   - error: non-nil if the file cannot be opened or migrated.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := repository.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate client state: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var entry kvEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	entry := kvEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteKV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
