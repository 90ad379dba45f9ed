package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timmy/memeverse/internal/view"
)

type memeOptions struct {
	toggleLike bool
	comment    string
	share      bool
}

func newMemeCmd(configPath *string) *cobra.Command {
	opts := &memeOptions{}
	cmd := &cobra.Command{
		Use:   "meme <id>",
		Short: "Show one meme, like it, comment on it or share it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return runMeme(a.context(cmd.Context(), "detail"), a, cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.toggleLike, "like", false, "Toggle the liked flag")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "Add a comment")
	cmd.Flags().BoolVar(&opts.share, "share", false, "Copy the meme URL")
	return cmd
}

func runMeme(ctx context.Context, a *app, cmd *cobra.Command, id string, opts *memeOptions) error {
	out := cmd.OutOrStdout()
	detail := view.NewDetail(a.store, a.session, a.local, a.sim)

	if err := detail.Open(ctx, id); err != nil {
		printScreen(out, detail.Render())
		return err
	}

	if opts.toggleLike {
		liked, err := detail.ToggleLike(ctx)
		if err != nil {
			return err
		}
		if liked {
			fmt.Fprintln(out, "Liked.")
		} else {
			fmt.Fprintln(out, "Unliked.")
		}
	}

	if opts.comment != "" {
		if _, err := detail.AddComment(ctx, opts.comment); err != nil {
			return err
		}
	}

	screen := detail.Render()
	printScreen(out, screen)
	if m, ok := detail.Meme(); ok {
		fmt.Fprintf(out, "url: %s\n", m.URL)
		if len(m.Tags) > 0 {
			fmt.Fprintf(out, "tags: %v\n", m.Tags)
		}
	}
	if a.session.IsLiked(id) {
		fmt.Fprintln(out, "liked: yes")
	} else {
		fmt.Fprintln(out, "liked: no")
	}

	comments := detail.Comments()
	fmt.Fprintf(out, "comments (%d):\n", len(comments))
	for _, c := range comments {
		fmt.Fprintf(out, "  - %s\n", c)
	}

	if opts.toggleLike {
		printSessionMemes(cmd, view.NewProfile(a.store, a.session, a.local))
	}

	if opts.share {
		msg, err := detail.Share(ctx, stdoutClipboard{w: out})
		fmt.Fprintln(out, msg)
		if err != nil {
			return err
		}
	}
	return nil
}
