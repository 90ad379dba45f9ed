package remote

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/memeverse/internal/logger"
)

// UploaderConfig holds configuration for an imgbb-compatible upload endpoint.
type UploaderConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Uploader posts images to an imgbb-compatible endpoint.
type Uploader struct {
	http   *resty.Client
	url    string
	apiKey string
}

// NewUploader creates a new uploader.
func NewUploader(cfg *UploaderConfig) *Uploader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Uploader{
		http:   resty.New().SetTimeout(timeout),
		url:    cfg.URL,
		apiKey: cfg.APIKey,
	}
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Error   string `json:"error,omitempty"`
	Data    *struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"data,omitempty"`
}

// Upload sends data as multipart field "image".
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filename: file name reported to the endpoint.
//   - name: optional title.
//   - data: image bytes.
//
// Returns:
//   - *UploadResult: the hosted image.
//   - error: wraps ErrUpload on transport failure or success=false.
func (u *Uploader) Upload(ctx context.Context, filename, name string, data []byte) (*UploadResult, error) {
	var out uploadResponse
	req := u.http.R().
		SetContext(ctx).
		SetQueryParam("key", u.apiKey).
		SetFileReader("image", filename, bytes.NewReader(data)).
		SetResult(&out).
		SetError(&out).
		ForceContentType("application/json")
	if name != "" {
		req.SetFormData(map[string]string{"name": name})
	}

	resp, err := req.Post(u.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if resp.IsError() || !out.Success || out.Data == nil {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode())
		}
		logger.FromContext(ctx).WithFields(logger.Fields{
			logger.FieldStatus: resp.StatusCode(),
			logger.FieldSize:   len(data),
		}).Warn("Upload rejected: " + msg)
		return nil, fmt.Errorf("%w: %s", ErrUpload, msg)
	}

	return &UploadResult{
		ID:     out.Data.ID,
		Title:  out.Data.Title,
		URL:    out.Data.URL,
		Width:  out.Data.Width,
		Height: out.Data.Height,
	}, nil
}
