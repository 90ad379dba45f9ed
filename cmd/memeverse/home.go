package main

import (
	"github.com/spf13/cobra"
	"github.com/timmy/memeverse/internal/view"
)

func newHomeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show trending memes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			home := view.NewHome(a.store, a.sim)
			loadErr := home.Load(a.context(cmd.Context(), "home"))
			printScreen(cmd.OutOrStdout(), home.Render())
			return loadErr
		},
	}
}
