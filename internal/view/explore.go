package view

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/timmy/memeverse/internal/debounce"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/remote"
	"github.com/timmy/memeverse/internal/state"
)

// Explore browses feeds with sorting, a like filter, search-as-you-type and
// infinite scroll.
type Explore struct {
	store     *state.Store
	sim       *LikeSimulator
	debouncer *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// searchMu orders a running search before the feed reload that clears it.
	searchMu sync.Mutex

	mu           sync.Mutex
	category     string
	sortBy       string
	page         int
	searchTerm   string
	searchGen    uint64
	searchCancel context.CancelFunc
	minLikes     int
	paging       bool
	closed       bool
}

// NewExplore creates the explore view. Requests it issues are bound to a
// context derived from ctx and cancelled by Close.
// Parameters:
//   - ctx: parent context for every request of this view.
//   - store: shared meme store.
//   - sim: like simulator for memes without counts.
//   - searchDelay: quiet period before a search runs, debounce.DefaultDelay when zero.
//
// Returns:
//   - *Explore: view on the trending feed sorted by likes.
func NewExplore(ctx context.Context, store *state.Store, sim *LikeSimulator, searchDelay time.Duration) *Explore {
	ctx, cancel := context.WithCancel(logger.SetComponent(ctx, "explore"))
	return &Explore{
		store:     store,
		sim:       sim,
		debouncer: debounce.New(searchDelay),
		ctx:       ctx,
		cancel:    cancel,
		category:  "trending",
		sortBy:    SortLikes,
		page:      1,
	}
}

func (e *Explore) queryLocked() remote.ListQuery {
	return remote.ListQuery{Category: e.category, Page: e.page, SortBy: e.sortBy}
}

// Load fetches the current page of the current feed.
func (e *Explore) Load() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return context.Canceled
	}
	q := e.queryLocked()
	e.mu.Unlock()
	return e.store.FetchList(e.ctx, q)
}

// SetCategory switches feed and starts again from page 1. While a search is
// active the new feed is loaded once the search is cleared.
func (e *Explore) SetCategory(category string) error {
	return e.update(func() { e.category = category })
}

// SetSortBy changes the server-side order and starts again from page 1.
func (e *Explore) SetSortBy(sortBy string) error {
	return e.update(func() { e.sortBy = sortBy })
}

func (e *Explore) update(change func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return context.Canceled
	}
	change()
	e.page = 1
	searching := e.searchTerm != ""
	q := e.queryLocked()
	e.mu.Unlock()

	if searching {
		return nil
	}
	return e.store.FetchList(e.ctx, q)
}

// SetSearchTerm records term and searches once typing pauses. Clearing the
// term drops any pending search, aborts a running one and reloads the feed.
func (e *Explore) SetSearchTerm(term string) error {
	term = strings.TrimSpace(term)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return context.Canceled
	}
	e.searchTerm = term
	e.searchGen++
	gen := e.searchGen
	if term != "" {
		e.mu.Unlock()
		e.debouncer.Trigger(func() { e.runSearch(term, gen) })
		return nil
	}
	if e.searchCancel != nil {
		e.searchCancel()
		e.searchCancel = nil
	}
	e.page = 1
	q := e.queryLocked()
	e.mu.Unlock()

	e.debouncer.Cancel()

	e.searchMu.Lock()
	defer e.searchMu.Unlock()
	return e.store.FetchList(e.ctx, q)
}

// runSearch searches for term unless the term changed since it was scheduled.
func (e *Explore) runSearch(term string, gen uint64) {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	e.mu.Lock()
	if e.closed || e.searchGen != gen {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.searchCancel = cancel
	e.wg.Add(1)
	e.mu.Unlock()
	defer e.wg.Done()
	defer cancel()

	if err := e.store.Search(ctx, term); err != nil {
		logger.FromContext(e.ctx).WithError(err).Debug("Search failed")
	}

	e.mu.Lock()
	if e.searchGen == gen {
		e.searchCancel = nil
	}
	e.mu.Unlock()
}

// ScrolledToBottom loads the next page. It does nothing while a page is still
// loading or a search is active, and reports whether a page was requested.
func (e *Explore) ScrolledToBottom() (bool, error) {
	e.mu.Lock()
	if e.closed || e.searchTerm != "" || e.paging || e.store.Loading(state.SlotBrowse) {
		e.mu.Unlock()
		return false, nil
	}
	e.page++
	e.paging = true
	q := e.queryLocked()
	e.mu.Unlock()

	err := e.store.FetchList(e.ctx, q)

	e.mu.Lock()
	e.paging = false
	e.mu.Unlock()
	return true, err
}

// SetMinLikes hides memes with fewer likes than n; zero shows everything.
func (e *Explore) SetMinLikes(n int) {
	e.mu.Lock()
	e.minLikes = n
	e.mu.Unlock()
}

// Page returns the last requested page.
func (e *Explore) Page() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

// Items returns the active list after the like filter and sort.
func (e *Explore) Items() Screen {
	e.mu.Lock()
	minLikes, sortBy := e.minLikes, e.sortBy
	e.mu.Unlock()

	active := e.store.Active()
	list := SortMemes(FilterMinLikes(active.Items, minLikes, e.sim), sortBy, e.sim)
	return screen(active, cards(list, e.sim))
}

// Close stops the view. Pending searches are dropped, in-flight requests are
// cancelled and later intents are refused.
func (e *Explore) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.debouncer.Stop()
	e.wg.Wait()
}
