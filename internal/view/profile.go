package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/timmy/memeverse/internal/persist"
	"github.com/timmy/memeverse/internal/remote"
	"github.com/timmy/memeverse/internal/state"
)

// LikedMeme is a liked meme resolved for display.
type LikedMeme struct {
	ID    string
	Title string
	URL   string
}

// Profile shows the user's profile, uploads and liked memes.
type Profile struct {
	store   *state.Store
	session *state.Session
	local   *persist.Adapter

	mu      sync.Mutex
	profile persist.Profile
}

// NewProfile creates the profile view.
func NewProfile(store *state.Store, session *state.Session, local *persist.Adapter) *Profile {
	return &Profile{store: store, session: session, local: local}
}

// Load reads the stored profile.
func (p *Profile) Load(ctx context.Context) (persist.Profile, error) {
	info, err := p.local.Profile(ctx)
	if err != nil {
		return persist.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	p.mu.Lock()
	p.profile = info
	p.mu.Unlock()
	return info, nil
}

// Update applies change to the profile and rewrites the stored record.
func (p *Profile) Update(ctx context.Context, change func(*persist.Profile)) (persist.Profile, error) {
	p.mu.Lock()
	next := p.profile
	p.mu.Unlock()

	change(&next)
	if err := p.local.SetProfile(ctx, next); err != nil {
		return persist.Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}

	p.mu.Lock()
	p.profile = next
	p.mu.Unlock()
	return next, nil
}

// UserMemes returns this session's uploads.
func (p *Profile) UserMemes() []state.UploadedMeme {
	return p.session.UserMemes()
}

// LikedMemes resolves liked ids against uploads and fetched memes, in the
// order they were liked. Ids that match nothing held are skipped.
func (p *Profile) LikedMemes() []LikedMeme {
	uploads := make(map[string]state.UploadedMeme)
	for _, m := range p.session.UserMemes() {
		uploads[m.ID] = m
	}

	var out []LikedMeme
	for _, id := range p.session.LikedIDs() {
		if m, ok := uploads[id]; ok {
			out = append(out, LikedMeme{ID: m.ID, Title: m.Title, URL: m.URL})
			continue
		}
		if m, ok := p.store.Find(id); ok {
			out = append(out, likedFromRemote(m))
		}
	}
	return out
}

func likedFromRemote(m remote.Meme) LikedMeme {
	return LikedMeme{ID: m.ID, Title: m.Name, URL: m.URL}
}
