package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/timmy/memeverse/internal/domain"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *MemeRepository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewMemeRepository(db)
}

func intPtr(v int) *int { return &v }

func seed(t *testing.T, repo *MemeRepository) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	memes := []domain.Meme{
		{ID: "a", Name: "Distracted Boyfriend", Category: "classic", Likes: intPtr(50), Comments: domain.StringArray{"lol"}, CreatedAt: base},
		{ID: "b", Name: "Grumpy Cat", Category: "animals", Likes: intPtr(200), Tags: domain.StringArray{"cat"}, CreatedAt: base.Add(time.Hour)},
		{ID: "c", Name: "Surprised Pikachu", Category: "animals", CreatedAt: base.Add(2 * time.Hour), Comments: domain.StringArray{"x", "y", "z"}},
		{ID: "d", Name: "Hidden", Category: "animals", Likes: intPtr(999), Status: domain.MemeStatusHidden, CreatedAt: base},
	}
	for i := range memes {
		m := memes[i]
		m.SourceType = domain.SourceTypeStaging
		m.SourceID = m.ID
		if m.Status == "" {
			m.Status = domain.MemeStatusActive
		}
		if err := repo.Create(context.Background(), &m); err != nil {
			t.Fatalf("Create %s: %v", m.ID, err)
		}
	}
}

func ids(memes []domain.Meme) []string {
	out := make([]string, len(memes))
	for i, m := range memes {
		out[i] = m.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMemeRepository_List(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)

	tests := []struct {
		name      string
		filter    ListFilter
		wantIDs   []string
		wantTotal int64
	}{
		{name: "trending by likes", filter: ListFilter{Category: FeedTrending, Limit: 10}, wantIDs: []string{"b", "a", "c"}, wantTotal: 3},
		{name: "new by date", filter: ListFilter{Category: FeedNew, Limit: 10}, wantIDs: []string{"c", "b", "a"}, wantTotal: 3},
		{name: "classic oldest first", filter: ListFilter{Category: FeedClassic, Limit: 10}, wantIDs: []string{"a", "b", "c"}, wantTotal: 3},
		{name: "stored category", filter: ListFilter{Category: "animals", Limit: 10}, wantIDs: []string{"b", "c"}, wantTotal: 2},
		{name: "sort by comments", filter: ListFilter{Category: FeedTrending, SortBy: SortByComments, Limit: 10}, wantIDs: []string{"c", "a", "b"}, wantTotal: 3},
		{name: "second page", filter: ListFilter{Category: FeedTrending, Limit: 2, Offset: 2}, wantIDs: []string{"c"}, wantTotal: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memes, total, err := repo.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if got := ids(memes); !equal(got, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestMemeRepository_Search(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)

	memes, err := repo.Search(context.Background(), "CAT", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := ids(memes); !equal(got, []string{"b"}) {
		t.Errorf("ids = %v, want [b]", got)
	}

	memes, err = repo.Search(context.Background(), "100%", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(memes) != 0 {
		t.Errorf("wildcards must be literal, got %v", ids(memes))
	}
}

func TestMemeRepository_IncrementLikes(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)
	ctx := context.Background()

	likes, err := repo.IncrementLikes(ctx, "c")
	if err != nil {
		t.Fatalf("IncrementLikes: %v", err)
	}
	if likes != 1 {
		t.Errorf("likes on null = %d, want 1", likes)
	}

	likes, err = repo.IncrementLikes(ctx, "b")
	if err != nil {
		t.Fatalf("IncrementLikes: %v", err)
	}
	if likes != 201 {
		t.Errorf("likes = %d, want 201", likes)
	}

	if _, err := repo.IncrementLikes(ctx, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("missing meme err = %v, want ErrRecordNotFound", err)
	}
	if _, err := repo.IncrementLikes(ctx, "d"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("hidden meme err = %v, want ErrRecordNotFound", err)
	}
}

func TestMemeRepository_AppendComment(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)
	ctx := context.Background()

	comments, err := repo.AppendComment(ctx, "a", "second")
	if err != nil {
		t.Fatalf("AppendComment: %v", err)
	}
	if !equal(comments, []string{"lol", "second"}) {
		t.Errorf("comments = %v", comments)
	}

	meme, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if meme.CommentCount != 2 || len(meme.Comments) != 2 {
		t.Errorf("stored comments = %v (count %d)", meme.Comments, meme.CommentCount)
	}
}

func TestMemeRepository_CategoriesAndStats(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)
	ctx := context.Background()

	categories, err := repo.GetCategories(ctx)
	if err != nil {
		t.Fatalf("GetCategories: %v", err)
	}
	if !equal(categories, []string{"animals", "classic"}) {
		t.Errorf("categories = %v", categories)
	}

	total, err := repo.SumLikes(ctx)
	if err != nil {
		t.Fatalf("SumLikes: %v", err)
	}
	if total != 250 {
		t.Errorf("SumLikes = %d, want 250", total)
	}

	active, err := repo.CountByStatus(ctx, domain.MemeStatusActive)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if active != 3 {
		t.Errorf("active = %d, want 3", active)
	}
}
