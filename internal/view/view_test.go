package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/persist"
	"github.com/timmy/memeverse/internal/remote"
	"github.com/timmy/memeverse/internal/state"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mu       sync.Mutex
	memes    []remote.Meme
	fail     error
	queries  []remote.ListQuery
	searches []string
	likes    map[string]int
	gate     chan struct{}
	entered  chan struct{}

	searchGate    chan struct{}
	searchEntered chan struct{}
}

func newFakeSource(ms ...remote.Meme) *fakeSource {
	return &fakeSource{memes: ms, likes: make(map[string]int)}
}

func (f *fakeSource) Trending(ctx context.Context) ([]remote.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return f.memes, nil
}

func (f *fakeSource) List(ctx context.Context, q remote.ListQuery) (*remote.ListPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", state.ErrNetwork, ctx.Err())
		}
	}
	return &remote.ListPage{Memes: f.memes, Page: q.Page}, nil
}

func (f *fakeSource) Search(ctx context.Context, term string) ([]remote.Meme, error) {
	f.mu.Lock()
	f.searches = append(f.searches, term)
	gate, entered := f.searchGate, f.searchEntered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", state.ErrNetwork, ctx.Err())
		}
	}
	return []remote.Meme{{ID: "hit-" + term}}, nil
}

func (f *fakeSource) Detail(ctx context.Context, id string) (*remote.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.memes {
		if m.ID == id {
			c := m.Clone()
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: Meme not found", state.ErrNetwork)
}

func (f *fakeSource) Like(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes[id]++
	return f.likes[id], nil
}

func (f *fakeSource) searchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

func intPtr(v int) *int { return &v }

func newStore(src state.MemeSource) *state.Store {
	return state.NewStore(src, logger.Discard())
}

func TestHome_Render(t *testing.T) {
	src := newFakeSource(remote.Meme{ID: "1", Likes: intPtr(3)}, remote.Meme{ID: "2", Comments: []string{"a", "b"}})
	sim := NewLikeSimulator()
	home := NewHome(newStore(src), sim)

	if err := home.Load(t.Context()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := home.Render()
	if s.Error != "" || len(s.Cards) != 2 || s.Cards[0].Likes != 3 || s.Cards[1].Comments != 2 {
		t.Fatalf("Render = %+v", s)
	}

	src.fail = fmt.Errorf("%w: status 503", state.ErrNetwork)
	home.Load(t.Context())
	if got := home.Render().Error; got != "Error: network error: status 503" {
		t.Fatalf("error = %q", got)
	}
}

func TestExplore_SearchIsDebounced(t *testing.T) {
	src := newFakeSource()
	e := NewExplore(t.Context(), newStore(src), NewLikeSimulator(), 0)
	defer e.Close()

	for _, term := range []string{"c", "ca", "cat"} {
		if err := e.SetSearchTerm(term); err != nil {
			t.Fatalf("SetSearchTerm: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := src.searchCalls(); len(got) != 0 {
		t.Fatalf("searched before the quiet period: %v", got)
	}

	time.Sleep(500 * time.Millisecond)
	if got := src.searchCalls(); len(got) != 1 || got[0] != "cat" {
		t.Fatalf("searches = %v, want [cat]", got)
	}
}

func TestExplore_FilterChangesResetPage(t *testing.T) {
	src := newFakeSource(remote.Meme{ID: "1"})
	e := NewExplore(t.Context(), newStore(src), NewLikeSimulator(), 0)
	defer e.Close()

	if err := e.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok, err := e.ScrolledToBottom(); !ok || err != nil {
		t.Fatalf("ScrolledToBottom = %v, %v", ok, err)
	}
	if e.Page() != 2 {
		t.Fatalf("page = %d, want 2", e.Page())
	}

	tests := []struct {
		name   string
		change func() error
	}{
		{name: "category", change: func() error { return e.SetCategory("new") }},
		{name: "sort", change: func() error { return e.SetSortBy(SortDate) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.ScrolledToBottom()
			if err := tt.change(); err != nil {
				t.Fatalf("change: %v", err)
			}
			if e.Page() != 1 {
				t.Fatalf("page = %d, want 1", e.Page())
			}
		})
	}

	last := src.queries[len(src.queries)-1]
	if last != (remote.ListQuery{Category: "new", Page: 1, SortBy: SortDate}) {
		t.Fatalf("last query = %+v", last)
	}
}

func TestExplore_ScrollGate(t *testing.T) {
	src := newFakeSource(remote.Meme{ID: "1"})
	src.gate = make(chan struct{})
	src.entered = make(chan struct{}, 4)
	e := NewExplore(t.Context(), newStore(src), NewLikeSimulator(), 0)
	defer e.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Load()
	}()
	<-src.entered

	if ok, _ := e.ScrolledToBottom(); ok {
		t.Fatal("page requested while the list is still loading")
	}
	close(src.gate)
	<-done

	if ok, _ := e.ScrolledToBottom(); !ok {
		t.Fatal("page not requested once loading finished")
	}
	<-src.entered

	e.SetSearchTerm("dog")
	if ok, _ := e.ScrolledToBottom(); ok {
		t.Fatal("page requested while a search is active")
	}
}

func TestExplore_ClearSearchWhileRunning(t *testing.T) {
	src := newFakeSource(remote.Meme{ID: "1"})
	src.searchGate = make(chan struct{})
	src.searchEntered = make(chan struct{}, 1)
	store := newStore(src)
	e := NewExplore(t.Context(), store, NewLikeSimulator(), 10*time.Millisecond)
	defer e.Close()

	if err := e.SetSearchTerm("cat"); err != nil {
		t.Fatalf("SetSearchTerm: %v", err)
	}
	select {
	case <-src.searchEntered:
	case <-time.After(2 * time.Second):
		t.Fatal("search never started")
	}

	if err := e.SetSearchTerm(""); err != nil {
		t.Fatalf("clear search: %v", err)
	}

	snap := store.Snapshot()
	if snap.ActiveList != state.SlotBrowse || snap.SearchTerm != "" {
		t.Fatalf("active = %s term = %q, want browse list", snap.ActiveList, snap.SearchTerm)
	}
	active := store.Active()
	if active.Status != state.StatusSucceeded || len(active.Items) != 1 || active.Items[0].ID != "1" {
		t.Fatalf("Active = %+v", active)
	}
}

func TestExplore_Close(t *testing.T) {
	src := newFakeSource()
	e := NewExplore(t.Context(), newStore(src), NewLikeSimulator(), 20*time.Millisecond)

	e.SetSearchTerm("cat")
	e.Close()
	time.Sleep(60 * time.Millisecond)

	if got := src.searchCalls(); len(got) != 0 {
		t.Fatalf("search ran after Close: %v", got)
	}
	if err := e.SetCategory("new"); !errors.Is(err, context.Canceled) {
		t.Fatalf("SetCategory after Close = %v", err)
	}
	e.Close()
}

func TestExplore_Items(t *testing.T) {
	src := newFakeSource(
		remote.Meme{ID: "low", Likes: intPtr(5)},
		remote.Meme{ID: "high", Likes: intPtr(50)},
		remote.Meme{ID: "mid", Likes: intPtr(20)},
	)
	e := NewExplore(t.Context(), newStore(src), NewLikeSimulator(), 0)
	defer e.Close()
	e.Load()

	e.SetMinLikes(10)
	items := e.Items().Cards
	if len(items) != 2 || items[0].Meme.ID != "high" || items[1].Meme.ID != "mid" {
		t.Fatalf("items = %+v", items)
	}
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteText(ctx context.Context, text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func newDetail(t *testing.T, src *fakeSource) (*Detail, *state.Session, *persist.Adapter) {
	t.Helper()
	session := state.NewSession()
	local := persist.NewAdapter(persist.NewMemoryKV())
	return NewDetail(newStore(src), session, local, NewLikeSimulator()), session, local
}

func TestDetail_ToggleLikeTwice(t *testing.T) {
	src := newFakeSource(remote.Meme{ID: "m1", URL: "http://x/m1.png", Likes: intPtr(10)})
	d, session, local := newDetail(t, src)
	ctx := t.Context()

	if err := d.Open(ctx, "m1"); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if liked, err := d.ToggleLike(ctx); !liked || err != nil {
		t.Fatalf("first toggle = %v, %v", liked, err)
	}
	if !session.IsLiked("m1") {
		t.Fatal("session should mirror the like")
	}
	if m, _ := d.Meme(); *m.Likes != 1 {
		t.Fatalf("held likes = %d, want the server count 1", *m.Likes)
	}

	if liked, err := d.ToggleLike(ctx); liked || err != nil {
		t.Fatalf("second toggle = %v, %v", liked, err)
	}
	if stored, _ := local.Liked(ctx, "m1"); stored || session.IsLiked("m1") || d.Liked() {
		t.Fatal("toggling twice should restore the unliked state")
	}
	if src.likes["m1"] != 1 {
		t.Fatalf("server likes = %d, want 1", src.likes["m1"])
	}
}

func TestDetail_CommentsAndShare(t *testing.T) {
	src := newFakeSource(remote.Meme{ID: "m1", URL: "http://x/m1.png"})
	d, _, local := newDetail(t, src)
	ctx := t.Context()
	d.Open(ctx, "m1")

	_, err := d.AddComment(ctx, "   ")
	if !errors.Is(err, state.ErrValidation) || err.Error() != "Comment cannot be empty" {
		t.Fatalf("blank comment err = %v", err)
	}

	if _, err := d.AddComment(ctx, "  lol  "); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	stored, _ := local.Comments(ctx, "m1")
	if len(stored) != 1 || stored[0] != "lol" || len(d.Comments()) != 1 {
		t.Fatalf("stored = %v", stored)
	}

	tests := []struct {
		name string
		clip *fakeClipboard
		want string
	}{
		{name: "copied", clip: &fakeClipboard{}, want: ShareCopied},
		{name: "denied", clip: &fakeClipboard{err: errors.New("denied")}, want: ShareFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, _ := d.Share(ctx, tt.clip)
			if msg != tt.want {
				t.Fatalf("Share = %q, want %q", msg, tt.want)
			}
		})
	}
}

func TestDetail_OpenMissing(t *testing.T) {
	d, _, _ := newDetail(t, newFakeSource())
	if err := d.Open(t.Context(), "nope"); !errors.Is(err, state.ErrNetwork) {
		t.Fatalf("err = %v", err)
	}
	if got := d.Render().Error; got != "Error: network error: Meme not found" {
		t.Fatalf("Render error = %q", got)
	}
}

type fakeUploader struct {
	err   error
	calls int
}

func (f *fakeUploader) Upload(ctx context.Context, filename, name string, data []byte) (*remote.UploadResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &remote.UploadResult{URL: "http://cdn/" + filename}, nil
}

type fakeCaptioner struct{ err error }

func (f fakeCaptioner) GenerateCaption(ctx context.Context, title string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "caption for " + title, nil
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestUpload_SelectFile(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		size        int64
		contentType string
		wantErr     string
		wantTitle   string
	}{
		{name: "png", file: "my-cool-meme.png", size: 10, contentType: "image/png", wantTitle: "My Cool Meme"},
		{name: "jpg by extension", file: "dank_meme.final.JPG", size: 10, wantTitle: "Dank Meme"},
		{name: "pdf", file: "doc.pdf", size: 10, contentType: "application/pdf", wantErr: MsgBadFileType},
		{name: "too large", file: "big.gif", size: MaxUploadSize + 1, contentType: "image/gif", wantErr: MsgFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUpload(&fakeUploader{}, fakeCaptioner{}, state.NewSession())
			err := u.SelectFile(tt.file, tt.size, tt.contentType, []byte("x"))
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr || u.Error() != tt.wantErr {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectFile: %v", err)
			}
			if u.Title() != tt.wantTitle {
				t.Fatalf("title = %q, want %q", u.Title(), tt.wantTitle)
			}
		})
	}
}

func TestUpload_Captions(t *testing.T) {
	ctx := t.Context()

	u := NewUpload(&fakeUploader{}, fakeCaptioner{}, state.NewSession())
	if _, err := u.GenerateCaption(ctx); err == nil || err.Error() != MsgTitleRequired {
		t.Fatalf("err = %v", err)
	}
	u.SetTitle("Cats")
	if c, err := u.GenerateCaption(ctx); err != nil || c != "caption for Cats" || u.Caption() != c {
		t.Fatalf("GenerateCaption = %q, %v", c, err)
	}

	u = NewUpload(&fakeUploader{}, fakeCaptioner{err: errors.New("down")}, state.NewSession())
	u.SetTitle("Cats")
	if _, err := u.GenerateCaption(ctx); err == nil || u.Error() != MsgCaptionFailed {
		t.Fatalf("error = %q", u.Error())
	}
}

func TestUpload_Submit(t *testing.T) {
	ctx := t.Context()

	t.Run("requires file and title", func(t *testing.T) {
		u := NewUpload(&fakeUploader{}, fakeCaptioner{}, state.NewSession())
		u.SetTitle("No file")
		if _, err := u.Submit(ctx); err == nil || err.Error() != MsgSubmitRequired {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("failure keeps the form", func(t *testing.T) {
		up := &fakeUploader{err: fmt.Errorf("%w: status 500", state.ErrUpload)}
		session := state.NewSession()
		u := NewUpload(up, fakeCaptioner{}, session)
		u.tick = time.Millisecond
		u.SelectFile("fail.png", 10, "image/png", pngData(t, 2, 2))
		u.SetCaption("keep me")

		_, err := u.Submit(ctx)
		if !errors.Is(err, state.ErrUpload) || u.Error() != MsgUploadFailed {
			t.Fatalf("err = %v, message = %q", err, u.Error())
		}
		if u.Title() != "Fail" || u.Caption() != "keep me" || u.Progress() != 0 || len(session.UserMemes()) != 0 {
			t.Fatal("failed upload must leave the form and session alone")
		}
	})

	t.Run("success records the upload", func(t *testing.T) {
		session := state.NewSession()
		u := NewUpload(&fakeUploader{}, fakeCaptioner{}, session)
		u.tick = time.Millisecond

		var mu sync.Mutex
		var seen []int
		u.OnProgress(func(p int) {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		})

		u.SelectFile("my-cool-meme.png", 10, "image/png", pngData(t, 40, 30))
		u.SetCaption("so true")
		meme, err := u.Submit(ctx)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if meme.Title != "My Cool Meme" || meme.Width != 40 || meme.Height != 30 ||
			meme.Captions != 1 || meme.Category != "user-uploaded" || meme.URL != "http://cdn/my-cool-meme.png" {
			t.Fatalf("meme = %+v", meme)
		}
		if u.Progress() != 100 {
			t.Fatalf("progress = %d", u.Progress())
		}
		mu.Lock()
		defer mu.Unlock()
		for _, p := range seen[:len(seen)-1] {
			if p > 90 {
				t.Fatalf("progress %d before completion", p)
			}
		}
		if len(session.UserMemes()) != 1 {
			t.Fatal("session should hold the upload")
		}
	})

	t.Run("undecodable image uses placeholder size", func(t *testing.T) {
		session := state.NewSession()
		u := NewUpload(&fakeUploader{}, fakeCaptioner{}, session)
		u.SelectFile("weird.gif", 3, "image/gif", []byte("gif"))
		meme, err := u.Submit(ctx)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if meme.Width != 500 || meme.Height != 500 || meme.Captions != 0 {
			t.Fatalf("meme = %+v", meme)
		}
	})
}

func TestProfile(t *testing.T) {
	ctx := t.Context()
	src := newFakeSource(remote.Meme{ID: "r1", Name: "Remote One", URL: "http://x/r1"})
	store := newStore(src)
	session := state.NewSession()
	local := persist.NewAdapter(persist.NewMemoryKV())
	p := NewProfile(store, session, local)

	if info, err := p.Load(ctx); err != nil || info != (persist.Profile{}) {
		t.Fatalf("Load = %+v, %v", info, err)
	}
	p.Update(ctx, func(pr *persist.Profile) { pr.Name = "Ada" })
	p.Update(ctx, func(pr *persist.Profile) { pr.Bio = "memes" })
	if stored, _ := local.Profile(ctx); stored != (persist.Profile{Name: "Ada", Bio: "memes"}) {
		t.Fatalf("stored = %+v", stored)
	}

	store.FetchTrending(ctx)
	up := session.UploadMeme(state.UploadDraft{Title: "Mine", URL: "http://x/mine"})
	session.ToggleLike("r1")
	session.ToggleLike("unknown")
	session.ToggleLike(up.ID)

	liked := p.LikedMemes()
	if len(liked) != 2 || liked[0].Title != "Remote One" || liked[1].Title != "Mine" {
		t.Fatalf("LikedMemes = %+v", liked)
	}
	if len(p.UserMemes()) != 1 {
		t.Fatal("UserMemes should list the upload")
	}
}
