package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/timmy/memeverse/internal/remote"
)

func ids(list []remote.Meme) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.ID
	}
	return out
}

func TestLikeSimulator(t *testing.T) {
	sim := NewLikeSimulator()

	if got := sim.Likes(remote.Meme{ID: "a", Likes: intPtr(0)}); got != 0 {
		t.Fatalf("explicit zero likes = %d", got)
	}
	if got := sim.Likes(remote.Meme{ID: "a", Likes: intPtr(1234)}); got != 1234 {
		t.Fatalf("explicit likes = %d", got)
	}

	for i := 0; i < 50; i++ {
		m := remote.Meme{ID: string(rune('A' + i))}
		first := sim.Likes(m)
		if first < 0 || first >= 1000 {
			t.Fatalf("simulated likes %d out of range", first)
		}
		if again := sim.Likes(m); again != first {
			t.Fatalf("simulated likes changed: %d then %d", first, again)
		}
	}
}

func TestFilterMinLikes(t *testing.T) {
	sim := NewLikeSimulator()
	list := []remote.Meme{
		{ID: "a", Likes: intPtr(0)},
		{ID: "b", Likes: intPtr(10)},
		{ID: "c"},
		{ID: "d", Likes: intPtr(999)},
	}

	if got := FilterMinLikes(list, 0, sim); len(got) != len(list) {
		t.Fatalf("minLikes=0 kept %d of %d", len(got), len(list))
	}

	prev := len(list)
	for _, min := range []int{1, 10, 100, 500, 999, 1000} {
		got := len(FilterMinLikes(list, min, sim))
		if got > prev {
			t.Fatalf("minLikes=%d kept %d, more than %d", min, got, prev)
		}
		prev = got
	}
	if got := ids(FilterMinLikes(list, 999, sim)); got[len(got)-1] != "d" {
		t.Fatalf("minLikes=999 = %v", got)
	}
}

func TestSortMemes(t *testing.T) {
	sim := NewLikeSimulator()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	list := []remote.Meme{
		{ID: "a", Likes: intPtr(5), CreatedAt: day(1), Comments: []string{"x"}},
		{ID: "b", Likes: intPtr(9), CreatedAt: day(3)},
		{ID: "c", Likes: intPtr(5), CreatedAt: day(2), Comments: []string{"x", "y"}},
	}

	tests := []struct {
		sortBy string
		want   string
	}{
		{sortBy: SortLikes, want: "[b a c]"},
		{sortBy: "", want: "[b a c]"},
		{sortBy: SortDate, want: "[b c a]"},
		{sortBy: SortComments, want: "[c a b]"},
	}
	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			got := ids(SortMemes(list, tt.sortBy, sim))
			if s := fmt.Sprint(got); s != tt.want {
				t.Fatalf("SortMemes(%q) = %s, want %s", tt.sortBy, s, tt.want)
			}
		})
	}
	if list[0].ID != "a" {
		t.Fatal("SortMemes must not reorder its input")
	}
}

func TestCommentCount(t *testing.T) {
	if CommentCount(remote.Meme{}) != 0 || CommentCount(remote.Meme{Comments: []string{"a"}}) != 1 {
		t.Fatal("CommentCount mismatch")
	}
}
