package state

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// UploadDraft is what the upload form hands to the Session.
type UploadDraft struct {
	Title    string
	URL      string
	Width    int
	Height   int
	Captions int
	Category string
}

// UploadedMeme is a meme the user uploaded during this session.
type UploadedMeme struct {
	ID        string
	Title     string
	URL       string
	Width     int
	Height    int
	Captions  int
	Category  string
	CreatedAt time.Time
}

// Session holds the user's own memes and liked ids. It never touches the network.
type Session struct {
	subs subscribers
	now  func() time.Time

	mu       sync.RWMutex
	memes    []UploadedMeme
	liked    []string
	likedSet map[string]struct{}
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		now:      time.Now,
		likedSet: make(map[string]struct{}),
	}
}

// Subscribe registers fn to run after every change and returns a function that removes it.
func (s *Session) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.add(fn)
}

// UploadMeme records a finished upload under a fresh id.
func (s *Session) UploadMeme(d UploadDraft) UploadedMeme {
	m := UploadedMeme{
		ID:        uuid.NewString(),
		Title:     d.Title,
		URL:       d.URL,
		Width:     d.Width,
		Height:    d.Height,
		Captions:  d.Captions,
		Category:  d.Category,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.memes = append(s.memes, m)
	s.mu.Unlock()
	s.subs.notify()
	return m
}

// UserMemes returns the uploads in the order they were made.
func (s *Session) UserMemes() []UploadedMeme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]UploadedMeme(nil), s.memes...)
}

// ToggleLike flips id in the liked set and returns whether it is now liked.
func (s *Session) ToggleLike(id string) bool {
	s.mu.Lock()
	_, liked := s.likedSet[id]
	s.setLocked(id, !liked)
	s.mu.Unlock()
	s.subs.notify()
	return !liked
}

// SetLiked puts id in or out of the liked set.
func (s *Session) SetLiked(id string, liked bool) {
	s.mu.Lock()
	_, was := s.likedSet[id]
	if was == liked {
		s.mu.Unlock()
		return
	}
	s.setLocked(id, liked)
	s.mu.Unlock()
	s.subs.notify()
}

func (s *Session) setLocked(id string, liked bool) {
	if liked {
		s.likedSet[id] = struct{}{}
		s.liked = append(s.liked, id)
		return
	}
	delete(s.likedSet, id)
	for i, v := range s.liked {
		if v == id {
			s.liked = append(s.liked[:i], s.liked[i+1:]...)
			break
		}
	}
}

// IsLiked reports whether id is in the liked set.
func (s *Session) IsLiked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likedSet[id]
	return ok
}

// LikedIDs returns liked ids in the order they were liked.
func (s *Session) LikedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.liked...)
}
