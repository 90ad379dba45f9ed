package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timmy/memeverse/internal/persist"
	"github.com/timmy/memeverse/internal/view"
)

type profileOptions struct {
	name    string
	bio     string
	picture string
}

func newProfileCmd(configPath *string) *cobra.Command {
	opts := &profileOptions{}
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the local profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return runProfile(a.context(cmd.Context(), "profile"), a, cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "Display name")
	cmd.Flags().StringVar(&opts.bio, "bio", "", "Short bio")
	cmd.Flags().StringVar(&opts.picture, "picture", "", "Profile picture URL")
	return cmd
}

func runProfile(ctx context.Context, a *app, cmd *cobra.Command, opts *profileOptions) error {
	profile := view.NewProfile(a.store, a.session, a.local)
	info, err := profile.Load(ctx)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("name") || flags.Changed("bio") || flags.Changed("picture") {
		info, err = profile.Update(ctx, func(p *persist.Profile) {
			if flags.Changed("name") {
				p.Name = opts.name
			}
			if flags.Changed("bio") {
				p.Bio = opts.bio
			}
			if flags.Changed("picture") {
				p.ProfilePicture = opts.picture
			}
		})
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "name:    %s\n", info.Name)
	fmt.Fprintf(out, "bio:     %s\n", info.Bio)
	fmt.Fprintf(out, "picture: %s\n", info.ProfilePicture)
	printSessionMemes(cmd, profile)
	return nil
}

// printSessionMemes lists what this session uploaded and liked.
func printSessionMemes(cmd *cobra.Command, profile *view.Profile) {
	out := cmd.OutOrStdout()

	uploads := profile.UserMemes()
	fmt.Fprintf(out, "your memes (%d):\n", len(uploads))
	for _, m := range uploads {
		fmt.Fprintf(out, "  - %s  %s  %dx%d  %s\n", m.ID, m.Title, m.Width, m.Height, m.URL)
	}

	liked := profile.LikedMemes()
	fmt.Fprintf(out, "liked memes (%d):\n", len(liked))
	for _, m := range liked {
		fmt.Fprintf(out, "  - %s  %s  %s\n", m.ID, m.Title, m.URL)
	}
}
