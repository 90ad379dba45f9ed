package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ImageStore holds meme image binaries and knows their public URLs.
type ImageStore interface {
	// Put stores an object under key.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Get opens an object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// URL returns the public URL of an object.
	URL(key string) string

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// ContentType maps an image format to its MIME type.
func ContentType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
