package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/timmy/memeverse/internal/state"
	"github.com/timmy/memeverse/internal/view"
)

type uploadOptions struct {
	title           string
	caption         string
	generateCaption bool
}

func newUploadCmd(configPath *string) *cobra.Command {
	opts := &uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image as a new meme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return runUpload(a.context(cmd.Context(), "upload"), a, cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.title, "title", "", "Title, derived from the file name when empty")
	cmd.Flags().StringVar(&opts.caption, "caption", "", "Caption text")
	cmd.Flags().BoolVar(&opts.generateCaption, "generate-caption", false, "Ask the server for a caption")
	return cmd
}

func runUpload(ctx context.Context, a *app, cmd *cobra.Command, path string, opts *uploadOptions) error {
	out := cmd.OutOrStdout()

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > view.MaxUploadSize {
		return state.NewValidationError(view.MsgFileTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	form := view.NewUpload(a.uploader, a.client, a.session)
	if err := form.SelectFile(filepath.Base(path), info.Size(), http.DetectContentType(data), data); err != nil {
		return err
	}
	if opts.title != "" {
		form.SetTitle(opts.title)
	}
	if opts.caption != "" {
		form.SetCaption(opts.caption)
	}
	if opts.generateCaption {
		caption, err := form.GenerateCaption(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "caption: %s\n", caption)
	}

	form.OnProgress(func(p int) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\ruploading... %3d%%", p)
	})
	added := 0
	unsubscribe := a.session.Subscribe(func() { added++ })
	meme, err := form.Submit(ctx)
	unsubscribe()
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Uploaded %q (%dx%d)\n", meme.Title, meme.Width, meme.Height)
	fmt.Fprintf(out, "url: %s\n", meme.URL)
	if added > 0 {
		printSessionMemes(cmd, view.NewProfile(a.store, a.session, a.local))
	}
	return nil
}
