package view

import (
	"context"

	"github.com/timmy/memeverse/internal/state"
)

// Screen is a list ready to display. Error is set, prefixed with "Error: ",
// when the last fetch failed.
type Screen struct {
	Cards  []Card
	Status state.Status
	Error  string
}

func screen(l state.ListState, list []Card) Screen {
	s := Screen{Cards: list, Status: l.Status}
	if l.Status == state.StatusFailed {
		s.Error = "Error: " + l.Error
	}
	return s
}

// Home shows the trending feed.
type Home struct {
	store *state.Store
	sim   *LikeSimulator
}

// NewHome creates the home view.
func NewHome(store *state.Store, sim *LikeSimulator) *Home {
	return &Home{store: store, sim: sim}
}

// Load fetches the trending feed.
func (h *Home) Load(ctx context.Context) error {
	return h.store.FetchTrending(ctx)
}

// Render returns the trending memes with their effective like counts.
func (h *Home) Render() Screen {
	trending := h.store.Snapshot().Trending
	return screen(trending, cards(trending.Items, h.sim))
}
