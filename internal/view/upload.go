package view

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/timmy/memeverse/internal/domain"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/remote"
	"github.com/timmy/memeverse/internal/state"
)

// Upload limits and messages.
const (
	MaxUploadSize = 5 * 1024 * 1024

	MsgTitleRequired  = "Please add a title first"
	MsgCaptionFailed  = "Failed to generate caption. Please try again."
	MsgSubmitRequired = "Please select an image and add a title"
	MsgUploadFailed   = "Failed to upload meme. Please try again."
	MsgBadFileType    = "Only JPEG, PNG and GIF images are allowed"
	MsgFileTooLarge   = "Image must be 5MB or smaller"
)

// Placeholder dimensions used when an image cannot be decoded.
const (
	fallbackWidth  = 500
	fallbackHeight = 500
)

var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

var acceptedExts = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true}

// Uploader hosts an image and returns where it lives.
type Uploader interface {
	Upload(ctx context.Context, filename, name string, data []byte) (*remote.UploadResult, error)
}

// Captioner suggests a caption for a title.
type Captioner interface {
	GenerateCaption(ctx context.Context, title string) (string, error)
}

type selectedFile struct {
	name string
	data []byte
}

// Upload is the meme upload form.
type Upload struct {
	uploader  Uploader
	captioner Captioner
	session   *state.Session
	tick      time.Duration

	mu         sync.Mutex
	file       *selectedFile
	title      string
	caption    string
	progress   int
	errMsg     string
	onProgress func(int)
}

// NewUpload creates an empty upload form.
func NewUpload(uploader Uploader, captioner Captioner, session *state.Session) *Upload {
	return &Upload{
		uploader:  uploader,
		captioner: captioner,
		session:   session,
		tick:      300 * time.Millisecond,
	}
}

// OnProgress registers fn to receive upload progress from 0 to 100.
func (u *Upload) OnProgress(fn func(int)) {
	u.mu.Lock()
	u.onProgress = fn
	u.mu.Unlock()
}

func (u *Upload) fail(msg string) error {
	u.mu.Lock()
	u.errMsg = msg
	u.mu.Unlock()
	return state.NewValidationError(msg)
}

// SelectFile validates an image and derives the title from its file name.
func (u *Upload) SelectFile(name string, size int64, contentType string, data []byte) error {
	if !acceptedTypes[strings.ToLower(contentType)] && !acceptedExts[strings.ToLower(filepath.Ext(name))] {
		return u.fail(MsgBadFileType)
	}
	if size > MaxUploadSize || len(data) > MaxUploadSize {
		return u.fail(MsgFileTooLarge)
	}

	u.mu.Lock()
	u.file = &selectedFile{name: name, data: data}
	u.title = domain.TitleFromFilename(name)
	u.errMsg = ""
	u.mu.Unlock()
	return nil
}

// SetTitle replaces the title.
func (u *Upload) SetTitle(title string) {
	u.mu.Lock()
	u.title = title
	u.mu.Unlock()
}

// SetCaption replaces the caption.
func (u *Upload) SetCaption(caption string) {
	u.mu.Lock()
	u.caption = caption
	u.mu.Unlock()
}

// Title returns the current title.
func (u *Upload) Title() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.title
}

// Caption returns the current caption.
func (u *Upload) Caption() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.caption
}

// Progress returns the upload progress from 0 to 100.
func (u *Upload) Progress() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.progress
}

// Error returns the message of the last failure, empty when none.
func (u *Upload) Error() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.errMsg
}

// GenerateCaption fills the caption from the title.
func (u *Upload) GenerateCaption(ctx context.Context) (string, error) {
	title := strings.TrimSpace(u.Title())
	if title == "" {
		return "", u.fail(MsgTitleRequired)
	}

	caption, err := u.captioner.GenerateCaption(ctx, title)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Caption generation failed")
		u.mu.Lock()
		u.errMsg = MsgCaptionFailed
		u.mu.Unlock()
		return "", fmt.Errorf("%s: %w", MsgCaptionFailed, err)
	}

	u.mu.Lock()
	u.caption = caption
	u.mu.Unlock()
	return caption, nil
}

func (u *Upload) setProgress(p int) {
	u.mu.Lock()
	u.progress = p
	fn := u.onProgress
	u.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

// Submit uploads the selected image and records it in the Session. On
// failure the form keeps its file, title and caption.
func (u *Upload) Submit(ctx context.Context) (*state.UploadedMeme, error) {
	u.mu.Lock()
	file, title, caption := u.file, strings.TrimSpace(u.title), u.caption
	u.mu.Unlock()
	if file == nil || title == "" {
		return nil, u.fail(MsgSubmitRequired)
	}

	u.mu.Lock()
	u.errMsg = ""
	u.mu.Unlock()
	u.setProgress(0)

	stop := make(chan struct{})
	ticking := make(chan struct{})
	go func() {
		defer close(ticking)
		t := time.NewTicker(u.tick)
		defer t.Stop()
		p := 0
		for {
			select {
			case <-t.C:
				if p += 10; p > 90 {
					p = 90
				}
				u.setProgress(p)
			case <-stop:
				return
			}
		}
	}()

	res, err := u.uploader.Upload(ctx, file.name, title, file.data)
	close(stop)
	<-ticking

	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Meme upload failed")
		u.mu.Lock()
		u.errMsg = MsgUploadFailed
		u.mu.Unlock()
		u.setProgress(0)
		return nil, fmt.Errorf("%s: %w", MsgUploadFailed, err)
	}
	u.setProgress(100)

	width, height := dimensions(file.data, res)
	captions := 0
	if caption != "" {
		captions = 1
	}
	meme := u.session.UploadMeme(state.UploadDraft{
		Title:    title,
		URL:      res.URL,
		Width:    width,
		Height:   height,
		Captions: captions,
		Category: domain.CategoryUserUploaded,
	})
	return &meme, nil
}

// dimensions decodes the image size, falling back to what the host reported
// and then to a fixed placeholder.
func dimensions(data []byte, res *remote.UploadResult) (int, int) {
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && cfg.Width > 0 {
		return cfg.Width, cfg.Height
	}
	if res.Width > 0 && res.Height > 0 {
		return res.Width, res.Height
	}
	return fallbackWidth, fallbackHeight
}

// Reset clears the form.
func (u *Upload) Reset() {
	u.mu.Lock()
	u.file = nil
	u.title = ""
	u.caption = ""
	u.errMsg = ""
	u.mu.Unlock()
	u.setProgress(0)
}
