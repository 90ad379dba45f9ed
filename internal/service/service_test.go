package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/repository"
	"github.com/timmy/memeverse/internal/storage"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	memes   *repository.MemeRepository
	jobs    *repository.JobRepository
	store   *storage.MemoryStore
	catalog *CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "memes.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	memes := repository.NewMemeRepository(db)
	return &testEnv{
		db:      db,
		memes:   memes,
		jobs:    repository.NewJobRepository(db),
		store:   storage.NewMemoryStore("http://cdn.test/memes"),
		catalog: NewCatalogService(memes, logger.Discard(), &CatalogConfig{DefaultLimit: 10, TrendingLimit: 3}),
	}
}

// pngBytes encodes a w x h image whose first pixel encodes seed, so different seeds hash differently.
func pngBytes(t *testing.T, w, h int, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: seed, G: 1, B: 2, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func bg() context.Context {
	return context.Background()
}
