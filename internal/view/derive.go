package view

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/timmy/memeverse/internal/remote"
)

// Sort keys for SortMemes.
const (
	SortLikes    = "likes"
	SortDate     = "date"
	SortComments = "comments"
)

// simulatedLikesRange bounds the display count given to memes without likes.
const simulatedLikesRange = 1000

// LikeSimulator assigns a display like count to memes the server has no count
// for. Each id gets one value for the lifetime of the simulator.
type LikeSimulator struct {
	mu     sync.Mutex
	values map[string]int
	intn   func(n int) int
}

// NewLikeSimulator creates a simulator backed by math/rand.
func NewLikeSimulator() *LikeSimulator {
	return &LikeSimulator{values: make(map[string]int), intn: rand.IntN}
}

// Likes returns m's like count, simulating one in [0, 1000) when m has none.
func (s *LikeSimulator) Likes(m remote.Meme) int {
	if m.Likes != nil {
		return *m.Likes
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[m.ID]
	if !ok {
		v = s.intn(simulatedLikesRange)
		s.values[m.ID] = v
	}
	return v
}

// CommentCount returns the number of server comments on m.
func CommentCount(m remote.Meme) int {
	return len(m.Comments)
}

// FilterMinLikes keeps memes whose effective like count is at least minLikes.
func FilterMinLikes(list []remote.Meme, minLikes int, sim *LikeSimulator) []remote.Meme {
	out := make([]remote.Meme, 0, len(list))
	for _, m := range list {
		if minLikes <= 0 || sim.Likes(m) >= minLikes {
			out = append(out, m)
		}
	}
	return out
}

// SortMemes returns a sorted copy of list. Unknown keys sort by likes.
// Ties keep their original order.
func SortMemes(list []remote.Meme, sortBy string, sim *LikeSimulator) []remote.Meme {
	out := append([]remote.Meme(nil), list...)

	var less func(a, b remote.Meme) bool
	switch sortBy {
	case SortDate:
		less = func(a, b remote.Meme) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortComments:
		less = func(a, b remote.Meme) bool { return CommentCount(a) > CommentCount(b) }
	default:
		less = func(a, b remote.Meme) bool { return sim.Likes(a) > sim.Likes(b) }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Card is a meme ready to display.
type Card struct {
	Meme     remote.Meme
	Likes    int
	Comments int
}

func cards(list []remote.Meme, sim *LikeSimulator) []Card {
	out := make([]Card, len(list))
	for i, m := range list {
		out[i] = Card{Meme: m, Likes: sim.Likes(m), Comments: CommentCount(m)}
	}
	return out
}
