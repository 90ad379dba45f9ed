package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/timmy/memeverse/internal/state"
)

func TestRunProfile(t *testing.T) {
	a := newTestApp(t)
	uploaded := a.session.UploadMeme(state.UploadDraft{
		Title:    "Dog On Fire",
		URL:      "http://cdn/dog.png",
		Width:    500,
		Height:   500,
		Category: "user-uploaded",
	})
	a.session.SetLiked(uploaded.ID, true)

	opts := &profileOptions{}
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.Flags().StringVar(&opts.name, "name", "", "")
	cmd.Flags().StringVar(&opts.bio, "bio", "", "")
	cmd.Flags().StringVar(&opts.picture, "picture", "", "")
	if err := cmd.Flags().Set("name", "Ann"); err != nil {
		t.Fatal(err)
	}

	if err := runProfile(t.Context(), a, cmd, opts); err != nil {
		t.Fatalf("runProfile: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"name:    Ann",
		"your memes (1):",
		"Dog On Fire",
		"liked memes (1):",
		uploaded.ID,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	stored, err := a.local.Profile(t.Context())
	if err != nil || stored.Name != "Ann" {
		t.Fatalf("stored profile = %+v, %v", stored, err)
	}
}
