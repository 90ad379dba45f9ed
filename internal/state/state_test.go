package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/remote"
)

type fakeSource struct {
	mu          sync.Mutex
	trending    []remote.Meme
	trendingErr error
	lists       map[string][]remote.Meme // keyed by category/page
	searches    []string
	likes       map[string]int
	block       map[string]chan struct{} // category whose List waits for a close
	entered     chan string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		lists:   make(map[string][]remote.Meme),
		likes:   make(map[string]int),
		block:   make(map[string]chan struct{}),
		entered: make(chan string, 8),
	}
}

func memes(ids ...string) []remote.Meme {
	out := make([]remote.Meme, len(ids))
	for i, id := range ids {
		out[i] = remote.Meme{ID: id, Name: "meme " + id}
	}
	return out
}

func (f *fakeSource) Trending(ctx context.Context) ([]remote.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trending, f.trendingErr
}

func (f *fakeSource) List(ctx context.Context, q remote.ListQuery) (*remote.ListPage, error) {
	f.mu.Lock()
	gate := f.block[q.Category]
	items := f.lists[fmt.Sprintf("%s/%d", q.Category, q.Page)]
	f.mu.Unlock()

	f.entered <- q.Category
	if gate != nil {
		<-gate
	}
	if items == nil {
		return nil, fmt.Errorf("%w: status 500", ErrNetwork)
	}
	return &remote.ListPage{Memes: items, Page: q.Page}, nil
}

func (f *fakeSource) Search(ctx context.Context, term string) ([]remote.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, term)
	return memes("s-" + term), nil
}

func (f *fakeSource) Detail(ctx context.Context, id string) (*remote.Meme, error) {
	if id == "missing" {
		return nil, fmt.Errorf("%w: Meme not found", ErrNetwork)
	}
	m := remote.Meme{ID: id, Name: "meme " + id}
	return &m, nil
}

func (f *fakeSource) Like(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes[id]++
	return f.likes[id], nil
}

func newTestStore(src MemeSource) *Store {
	return NewStore(src, logger.Discard())
}

func TestStore_StatusTransitions(t *testing.T) {
	src := newFakeSource()
	s := newTestStore(src)
	ctx := t.Context()

	if got := s.Snapshot().Trending.Status; got != StatusIdle {
		t.Fatalf("initial status = %s", got)
	}

	var seen []Status
	unsubscribe := s.Subscribe(func() { seen = append(seen, s.Snapshot().Trending.Status) })

	src.trending = memes("a", "b")
	if err := s.FetchTrending(ctx); err != nil {
		t.Fatalf("FetchTrending: %v", err)
	}

	src.trendingErr = fmt.Errorf("%w: boom", ErrNetwork)
	if err := s.FetchTrending(ctx); !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v", err)
	}
	unsubscribe()

	want := []Status{StatusLoading, StatusSucceeded, StatusLoading, StatusFailed}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	snap := s.Snapshot().Trending
	if snap.Error != "network error: boom" {
		t.Fatalf("error = %q", snap.Error)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("failed fetch should keep previous items, got %d", len(snap.Items))
	}
}

func TestStore_FetchListPaging(t *testing.T) {
	src := newFakeSource()
	src.lists["new/1"] = memes("a", "b")
	src.lists["new/2"] = memes("c")
	s := newTestStore(src)
	ctx := t.Context()

	tests := []struct {
		name string
		page int
		want int
	}{
		{name: "first page replaces", page: 1, want: 2},
		{name: "second page appends", page: 2, want: 3},
		{name: "first page again replaces", page: 1, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.FetchList(ctx, remote.ListQuery{Category: "new", Page: tt.page}); err != nil {
				t.Fatalf("FetchList: %v", err)
			}
			<-src.entered
			if got := len(s.Active().Items); got != tt.want {
				t.Fatalf("items = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStore_DiscardsStaleResponses(t *testing.T) {
	src := newFakeSource()
	src.lists["slow/1"] = memes("old")
	src.lists["fast/1"] = memes("new")
	gate := make(chan struct{})
	src.block["slow"] = gate
	s := newTestStore(src)
	ctx := t.Context()

	done := make(chan error, 1)
	go func() { done <- s.FetchList(ctx, remote.ListQuery{Category: "slow", Page: 1}) }()
	<-src.entered

	if err := s.FetchList(ctx, remote.ListQuery{Category: "fast", Page: 1}); err != nil {
		t.Fatalf("FetchList(fast): %v", err)
	}
	<-src.entered
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("FetchList(slow): %v", err)
	}

	browse := s.Snapshot().Browse
	if browse.Status != StatusSucceeded || len(browse.Items) != 1 || browse.Items[0].ID != "new" {
		t.Fatalf("browse = %+v", browse)
	}
}

func TestStore_SearchAndFallback(t *testing.T) {
	src := newFakeSource()
	src.lists["classic/1"] = memes("x")
	s := newTestStore(src)
	ctx := t.Context()

	if err := s.FetchList(ctx, remote.ListQuery{Category: "classic", Page: 1}); err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	<-src.entered

	if err := s.Search(ctx, "cat"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if snap := s.Snapshot(); snap.ActiveList != SlotSearch || snap.SearchTerm != "cat" || s.Active().Items[0].ID != "s-cat" {
		t.Fatalf("after search: %+v", snap)
	}

	if err := s.Search(ctx, "  "); err != nil {
		t.Fatalf("Search(blank): %v", err)
	}
	if got := <-src.entered; got != "classic" {
		t.Fatalf("blank search refetched %q", got)
	}
	if snap := s.Snapshot(); snap.ActiveList != SlotBrowse || s.Active().Items[0].ID != "x" {
		t.Fatalf("after blank search: %+v", snap)
	}
	if len(src.searches) != 1 {
		t.Fatalf("searches = %v", src.searches)
	}
}

func TestStore_DetailClearsAndFails(t *testing.T) {
	s := newTestStore(newFakeSource())
	ctx := t.Context()

	if err := s.FetchDetail(ctx, "1"); err != nil {
		t.Fatalf("FetchDetail: %v", err)
	}

	var during *remote.Meme
	var once sync.Once
	s.Subscribe(func() {
		once.Do(func() { during = s.Snapshot().Detail.Meme })
	})

	if err := s.FetchDetail(ctx, "missing"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v", err)
	}
	if during != nil {
		t.Fatalf("previous meme still visible while loading: %+v", during)
	}
	d := s.Snapshot().Detail
	if d.Status != StatusFailed || d.Meme != nil || d.Error != "network error: Meme not found" {
		t.Fatalf("detail = %+v", d)
	}
}

func TestStore_LikeUpdatesEveryCopy(t *testing.T) {
	src := newFakeSource()
	src.trending = memes("a", "b")
	src.lists["trending/1"] = memes("b")
	src.likes["b"] = 41
	s := newTestStore(src)
	ctx := t.Context()

	s.FetchTrending(ctx)
	s.FetchList(ctx, remote.ListQuery{Category: "trending", Page: 1})
	<-src.entered
	s.FetchDetail(ctx, "b")

	likes, err := s.Like(ctx, "b")
	if err != nil || likes != 42 {
		t.Fatalf("Like = %d, %v", likes, err)
	}

	snap := s.Snapshot()
	for name, m := range map[string]remote.Meme{
		"trending": snap.Trending.Items[1],
		"browse":   snap.Browse.Items[0],
		"detail":   *snap.Detail.Meme,
	} {
		if m.Likes == nil || *m.Likes != 42 {
			t.Errorf("%s copy likes = %v", name, m.Likes)
		}
	}
	if snap.Trending.Items[0].Likes != nil {
		t.Error("other memes must be untouched")
	}

	*snap.Detail.Meme.Likes = 0
	if m, _ := s.Find("b"); *m.Likes != 42 {
		t.Error("snapshot must not alias store state")
	}
}

func TestSession(t *testing.T) {
	s := NewSession()

	notified := 0
	s.Subscribe(func() { notified++ })

	a := s.UploadMeme(UploadDraft{Title: "A", Category: "user-uploaded"})
	b := s.UploadMeme(UploadDraft{Title: "B"})
	if a.ID == "" || a.ID == b.ID || a.CreatedAt.IsZero() {
		t.Fatalf("uploads = %+v %+v", a, b)
	}
	if got := s.UserMemes(); len(got) != 2 || got[0].Title != "A" {
		t.Fatalf("UserMemes = %+v", got)
	}

	if !s.ToggleLike("x") || !s.ToggleLike("y") || s.ToggleLike("x") {
		t.Fatal("ToggleLike returned wrong state")
	}
	if ids := s.LikedIDs(); len(ids) != 1 || ids[0] != "y" {
		t.Fatalf("LikedIDs = %v", ids)
	}

	s.SetLiked("y", true)
	s.SetLiked("z", true)
	if !s.IsLiked("z") || s.IsLiked("x") {
		t.Fatal("IsLiked mismatch")
	}
	if notified != 6 {
		t.Fatalf("notified = %d, want 6", notified)
	}
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("submit: %w", NewValidationError("Please add a title first"))
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message != "Please add a title first" {
		t.Fatalf("errors.As = %v", ve)
	}
}
