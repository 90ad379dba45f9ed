package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/persist"
	"github.com/timmy/memeverse/internal/remote"
	"github.com/timmy/memeverse/internal/state"
)

// Messages shown after sharing.
const (
	ShareCopied = "Meme URL copied to clipboard!"
	ShareFailed = "Failed to copy meme URL."
)

// Clipboard receives shared URLs.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Detail shows one meme with its locally stored comments and liked flag.
//
// The liked flag has one writer: ToggleLike updates the stored flag and the
// Session together. The server count only moves when the flag turns on.
type Detail struct {
	store   *state.Store
	session *state.Session
	local   *persist.Adapter
	sim     *LikeSimulator

	mu       sync.Mutex
	id       string
	liked    bool
	comments []string
}

// NewDetail creates the detail view.
func NewDetail(store *state.Store, session *state.Session, local *persist.Adapter, sim *LikeSimulator) *Detail {
	return &Detail{store: store, session: session, local: local, sim: sim}
}

// Open loads meme id from the server and its stored comments and liked flag.
func (d *Detail) Open(ctx context.Context, id string) error {
	ctx = logger.WithField(ctx, logger.FieldMemeID, id)

	comments, err := d.local.Comments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	liked, err := d.local.Liked(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load liked flag: %w", err)
	}

	d.mu.Lock()
	d.id, d.liked, d.comments = id, liked, comments
	d.mu.Unlock()
	d.session.SetLiked(id, liked)

	return d.store.FetchDetail(ctx, id)
}

// Meme returns the loaded meme, if any.
func (d *Detail) Meme() (remote.Meme, bool) {
	m := d.store.Snapshot().Detail.Meme
	if m == nil {
		return remote.Meme{}, false
	}
	return *m, true
}

// Render returns the meme card, or the error text when loading failed.
func (d *Detail) Render() Screen {
	detail := d.store.Snapshot().Detail
	s := Screen{Status: detail.Status}
	if detail.Meme != nil {
		s.Cards = cards([]remote.Meme{*detail.Meme}, d.sim)
	}
	if detail.Status == state.StatusFailed {
		s.Error = "Error: " + detail.Error
	}
	return s
}

// Liked reports the stored liked flag of the open meme.
func (d *Detail) Liked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.liked
}

// Comments returns the locally stored comments of the open meme.
func (d *Detail) Comments() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.comments...)
}

// ToggleLike flips the liked flag of the open meme and returns the new value.
// Turning it on also records a like on the server.
func (d *Detail) ToggleLike(ctx context.Context) (bool, error) {
	d.mu.Lock()
	id := d.id
	liked := !d.liked
	d.mu.Unlock()
	if id == "" {
		return false, state.NewValidationError("No meme is open")
	}

	if err := d.local.SetLiked(ctx, id, liked); err != nil {
		return !liked, fmt.Errorf("failed to store liked flag: %w", err)
	}
	d.mu.Lock()
	d.liked = liked
	d.mu.Unlock()
	d.session.SetLiked(id, liked)

	if liked {
		if _, err := d.store.Like(ctx, id); err != nil {
			return liked, err
		}
	}
	return liked, nil
}

// AddComment appends text to the open meme's stored comments.
func (d *Detail) AddComment(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, state.NewValidationError("Comment cannot be empty")
	}

	d.mu.Lock()
	id := d.id
	d.mu.Unlock()
	if id == "" {
		return nil, state.NewValidationError("No meme is open")
	}

	comments, err := d.local.AppendComment(ctx, id, text)
	if err != nil {
		return nil, fmt.Errorf("failed to store comment: %w", err)
	}

	d.mu.Lock()
	if d.id == id {
		d.comments = comments
	}
	d.mu.Unlock()
	return append([]string(nil), comments...), nil
}

// Share copies the meme URL to clip and returns the message to show.
func (d *Detail) Share(ctx context.Context, clip Clipboard) (string, error) {
	m, ok := d.Meme()
	if !ok || m.URL == "" {
		return ShareFailed, state.NewValidationError(ShareFailed)
	}
	if err := clip.WriteText(ctx, m.URL); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Clipboard write failed")
		return ShareFailed, err
	}
	return ShareCopied, nil
}
