package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/timmy/memeverse/internal/config"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/persist"
	"github.com/timmy/memeverse/internal/remote"
	"github.com/timmy/memeverse/internal/state"
	"github.com/timmy/memeverse/internal/view"
)

// app holds the client-side services shared by every command.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	client   *remote.Client
	uploader *remote.Uploader
	kv       *persist.SQLiteKV
	local    *persist.Adapter
	store    *state.Store
	session  *state.Session
	sim      *view.LikeSimulator
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Logs go to stderr so command output stays clean; LOG_LEVEL=debug shows request traces.
	logCfg := logger.LoadFromEnv()
	logCfg.ServiceName = "memeverse-cli"
	logCfg.Level = envOr("LOG_LEVEL", "warn")
	logCfg.Format = envOr("LOG_FORMAT", "text")
	logCfg.File = ""
	appLogger := logger.New(logCfg)
	appLogger.Logger.SetOutput(os.Stderr)
	logger.SetDefaultLogger(appLogger)

	kv, err := persist.OpenSQLiteKV(cfg.Client.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local state at %s: %w", filepath.Clean(cfg.Client.StatePath), err)
	}

	client := remote.NewClient(&remote.ClientConfig{
		BaseURL: cfg.Client.APIBaseURL,
		Timeout: cfg.Client.Timeout,
	})

	uploader := remote.NewUploader(&remote.UploaderConfig{
		URL:     cfg.Client.UploadURL,
		APIKey:  cfg.Client.UploadAPIKey,
		Timeout: cfg.Client.Timeout,
	})

	return &app{
		cfg:      cfg,
		log:      appLogger,
		client:   client,
		uploader: uploader,
		kv:       kv,
		local:    persist.NewAdapter(kv),
		store:    state.NewStore(client, appLogger),
		session:  state.NewSession(),
		sim:      view.NewLikeSimulator(),
	}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close local state")
	}
}

func (a *app) context(parent context.Context, component string) context.Context {
	return logger.SetComponent(a.log.WithContext(parent), component)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// printScreen writes a list screen as one line per card.
func printScreen(w io.Writer, s view.Screen) {
	if s.Error != "" {
		fmt.Fprintln(w, s.Error)
		return
	}
	if len(s.Cards) == 0 {
		fmt.Fprintln(w, "No memes found.")
		return
	}
	for _, c := range s.Cards {
		printCard(w, c)
	}
}

func printCard(w io.Writer, c view.Card) {
	category := c.Meme.Category
	if category == "" {
		category = "-"
	}
	fmt.Fprintf(w, "%-36s  %-40s  %6d likes  %3d comments  [%s]\n",
		c.Meme.ID, c.Meme.Name, c.Likes, c.Comments, category)
}

// stdoutClipboard "copies" by printing, since a terminal session may have no clipboard.
type stdoutClipboard struct {
	w io.Writer
}

func (c stdoutClipboard) WriteText(_ context.Context, text string) error {
	_, err := fmt.Fprintln(c.w, text)
	return err
}
