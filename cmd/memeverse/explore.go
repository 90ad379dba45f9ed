package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/timmy/memeverse/internal/state"
	"github.com/timmy/memeverse/internal/view"
)

type exploreOptions struct {
	category string
	sortBy   string
	minLikes int
	search   string
	pages    int
}

func newExploreCmd(configPath *string) *cobra.Command {
	opts := &exploreOptions{}
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse memes by feed or category, or search them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return runExplore(a.context(cmd.Context(), "explore"), a, cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.category, "category", "trending", "Feed (trending, new, classic, random) or category")
	cmd.Flags().StringVar(&opts.sortBy, "sort", view.SortLikes, "Sort order: likes, date or comments")
	cmd.Flags().IntVar(&opts.minLikes, "min-likes", 0, "Hide memes with fewer likes")
	cmd.Flags().StringVar(&opts.search, "search", "", "Search term")
	cmd.Flags().IntVar(&opts.pages, "pages", 1, "Number of pages to load")
	return cmd
}

func runExplore(ctx context.Context, a *app, cmd *cobra.Command, opts *exploreOptions) error {
	opts.search = strings.TrimSpace(opts.search)
	switch opts.sortBy {
	case view.SortLikes, view.SortDate, view.SortComments:
	default:
		return state.NewValidationError(fmt.Sprintf("Unknown sort order %q", opts.sortBy))
	}

	explore := view.NewExplore(ctx, a.store, a.sim, a.cfg.Client.SearchDebounce)
	defer explore.Close()

	if err := explore.SetCategory(opts.category); err != nil {
		return err
	}
	if err := explore.SetSortBy(opts.sortBy); err != nil {
		return err
	}
	explore.SetMinLikes(opts.minLikes)

	if opts.search != "" {
		done := waitFor(a.store, func(s state.Snapshot) bool {
			return s.ActiveList == state.SlotSearch &&
				(s.Search.Status == state.StatusSucceeded || s.Search.Status == state.StatusFailed)
		})
		if err := explore.SetSearchTerm(opts.search); err != nil {
			return err
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		for i := 1; i < opts.pages; i++ {
			if _, err := explore.ScrolledToBottom(); err != nil {
				break
			}
		}
	}

	screen := explore.Items()
	printScreen(cmd.OutOrStdout(), screen)
	if screen.Status == state.StatusFailed {
		return errors.New("failed to load memes")
	}
	if opts.search == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "page %d\n", explore.Page())
	}
	return nil
}

// waitFor returns a channel closed the first time the store reaches cond.
func waitFor(store *state.Store, cond func(state.Snapshot) bool) <-chan struct{} {
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := store.Subscribe(func() {
		if cond(store.Snapshot()) {
			once.Do(func() { close(done) })
		}
	})
	go func() {
		<-done
		unsubscribe()
	}()
	return done
}
