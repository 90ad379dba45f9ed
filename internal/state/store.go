package state

import (
	"context"
	"strings"
	"sync"

	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/remote"
)

// Status is the lifecycle of one fetch slot.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Slot names one piece of fetched state.
type Slot string

const (
	SlotTrending Slot = "trending"
	SlotBrowse   Slot = "browse"
	SlotSearch   Slot = "search"
	SlotDetail   Slot = "detail"
)

// MemeSource is the remote catalog the Store reads from.
type MemeSource interface {
	Trending(ctx context.Context) ([]remote.Meme, error)
	List(ctx context.Context, q remote.ListQuery) (*remote.ListPage, error)
	Search(ctx context.Context, term string) ([]remote.Meme, error)
	Detail(ctx context.Context, id string) (*remote.Meme, error)
	Like(ctx context.Context, id string) (int, error)
}

// ListState is one fetched list.
type ListState struct {
	Items  []remote.Meme
	Status Status
	Error  string
}

func (l ListState) clone() ListState {
	if l.Items != nil {
		items := make([]remote.Meme, len(l.Items))
		for i, m := range l.Items {
			items[i] = m.Clone()
		}
		l.Items = items
	}
	return l
}

// DetailState is the single meme being viewed.
type DetailState struct {
	Meme   *remote.Meme
	Status Status
	Error  string
}

func (d DetailState) clone() DetailState {
	if d.Meme != nil {
		m := d.Meme.Clone()
		d.Meme = &m
	}
	return d
}

// Snapshot is a deep copy of everything the Store holds.
type Snapshot struct {
	Trending   ListState
	Browse     ListState
	Search     ListState
	Detail     DetailState
	ActiveList Slot
	Query      remote.ListQuery
	SearchTerm string
}

// Store holds the fetched meme lists and the detail slot.
//
// Every fetch takes a sequence number for its slot. A response is applied only
// when it carries the slot's latest number, so a slow earlier request can never
// overwrite a later one.
type Store struct {
	src    MemeSource
	logger *logger.Logger
	subs   subscribers

	mu         sync.RWMutex
	trending   ListState
	browse     ListState
	search     ListState
	detail     DetailState
	active     Slot
	query      remote.ListQuery
	searchTerm string
	seq        map[Slot]uint64
}

// NewStore creates an empty store reading from src.
// Parameters:
//   - src: remote meme catalog.
//   - log: fallback logger when the request context carries none.
//
// Returns:
//   - *Store: store with every slot idle.
func NewStore(src MemeSource, log *logger.Logger) *Store {
	return &Store{
		src:      src,
		logger:   log,
		trending: ListState{Status: StatusIdle},
		browse:   ListState{Status: StatusIdle},
		search:   ListState{Status: StatusIdle},
		detail:   DetailState{Status: StatusIdle},
		active:   SlotBrowse,
		query:    remote.ListQuery{Category: "trending", Page: 1, SortBy: "likes"},
		seq:      make(map[Slot]uint64),
	}
}

func (s *Store) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// Subscribe registers fn to run after every state change and returns a
// function that removes it.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.add(fn)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Trending:   s.trending.clone(),
		Browse:     s.browse.clone(),
		Search:     s.search.clone(),
		Detail:     s.detail.clone(),
		ActiveList: s.active,
		Query:      s.query,
		SearchTerm: s.searchTerm,
	}
}

// Active returns the list currently shown on explore: search results while a
// search is active, the browsable list otherwise.
func (s *Store) Active() ListState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == SlotSearch {
		return s.search.clone()
	}
	return s.browse.clone()
}

// Loading reports whether slot has a request in flight.
func (s *Store) Loading(slot Slot) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch slot {
	case SlotTrending:
		return s.trending.Status == StatusLoading
	case SlotBrowse:
		return s.browse.Status == StatusLoading
	case SlotSearch:
		return s.search.Status == StatusLoading
	case SlotDetail:
		return s.detail.Status == StatusLoading
	}
	return false
}

// begin moves slot into loading and returns the request's sequence number.
func (s *Store) begin(slot Slot, enter func()) uint64 {
	s.mu.Lock()
	s.seq[slot]++
	seq := s.seq[slot]
	enter()
	s.mu.Unlock()
	s.subs.notify()
	return seq
}

// finish applies a response if seq is still the latest for slot.
func (s *Store) finish(ctx context.Context, slot Slot, seq uint64, apply func()) {
	s.mu.Lock()
	if seq != s.seq[slot] {
		latest := s.seq[slot]
		s.mu.Unlock()
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldSlot: string(slot),
			logger.FieldSeq:  seq,
			"latest":         latest,
		}).Debug("Discarding stale response")
		return
	}
	apply()
	s.mu.Unlock()
	s.subs.notify()
}

// FetchTrending loads the trending list.
func (s *Store) FetchTrending(ctx context.Context) error {
	seq := s.begin(SlotTrending, func() {
		s.trending.Status = StatusLoading
		s.trending.Error = ""
	})

	memes, err := s.src.Trending(ctx)
	s.finish(ctx, SlotTrending, seq, func() {
		if err != nil {
			s.trending.Status = StatusFailed
			s.trending.Error = err.Error()
			return
		}
		s.trending = ListState{Items: memes, Status: StatusSucceeded}
	})
	return err
}

// FetchList loads one page of the browsable list and makes it the active
// list. Page 1 replaces the list; later pages append to it.
func (s *Store) FetchList(ctx context.Context, q remote.ListQuery) error {
	if q.Page < 1 {
		q.Page = 1
	}
	seq := s.begin(SlotBrowse, func() {
		s.browse.Status = StatusLoading
		s.browse.Error = ""
		s.active = SlotBrowse
		s.searchTerm = ""
		s.query = q
	})

	page, err := s.src.List(ctx, q)
	s.finish(ctx, SlotBrowse, seq, func() {
		if err != nil {
			s.browse.Status = StatusFailed
			s.browse.Error = err.Error()
			return
		}
		if q.Page == 1 {
			s.browse.Items = page.Memes
		} else {
			s.browse.Items = append(s.browse.Items, page.Memes...)
		}
		s.browse.Status = StatusSucceeded
	})
	return err
}

// Search replaces the search results with matches for term and makes them
// the active list. A blank term drops the search and reloads the current
// browsable query instead.
func (s *Store) Search(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		s.mu.RLock()
		q := s.query
		s.mu.RUnlock()
		q.Page = 1
		return s.FetchList(ctx, q)
	}

	seq := s.begin(SlotSearch, func() {
		s.search.Status = StatusLoading
		s.search.Error = ""
		s.active = SlotSearch
		s.searchTerm = term
	})

	memes, err := s.src.Search(ctx, term)
	s.finish(ctx, SlotSearch, seq, func() {
		if err != nil {
			s.search.Status = StatusFailed
			s.search.Error = err.Error()
			return
		}
		s.search = ListState{Items: memes, Status: StatusSucceeded}
	})
	return err
}

// FetchDetail loads meme id into the detail slot. The previous meme is
// cleared as soon as the request starts.
func (s *Store) FetchDetail(ctx context.Context, id string) error {
	seq := s.begin(SlotDetail, func() {
		s.detail = DetailState{Status: StatusLoading}
	})

	meme, err := s.src.Detail(ctx, id)
	s.finish(ctx, SlotDetail, seq, func() {
		if err != nil {
			s.detail = DetailState{Status: StatusFailed, Error: err.Error()}
			return
		}
		s.detail = DetailState{Meme: meme, Status: StatusSucceeded}
	})
	return err
}

// Like records a like on the server and writes the returned count into every
// copy of the meme the store holds.
func (s *Store) Like(ctx context.Context, id string) (int, error) {
	likes, err := s.src.Like(ctx, id)
	if err != nil {
		s.log(ctx).WithField(logger.FieldMemeID, id).WithError(err).Warn("Like failed")
		return 0, err
	}

	s.mu.Lock()
	for _, list := range []*ListState{&s.trending, &s.browse, &s.search} {
		for i := range list.Items {
			if list.Items[i].ID == id {
				n := likes
				list.Items[i].Likes = &n
			}
		}
	}
	if s.detail.Meme != nil && s.detail.Meme.ID == id {
		n := likes
		s.detail.Meme.Likes = &n
	}
	s.mu.Unlock()
	s.subs.notify()
	return likes, nil
}

// Find returns a held copy of meme id from any slot.
func (s *Store) Find(id string) (remote.Meme, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.detail.Meme != nil && s.detail.Meme.ID == id {
		return s.detail.Meme.Clone(), true
	}
	for _, list := range []*ListState{&s.trending, &s.browse, &s.search} {
		for _, m := range list.Items {
			if m.ID == id {
				return m.Clone(), true
			}
		}
	}
	return remote.Meme{}, false
}
