package service

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// imageInfo is what the catalog needs to know about an image binary.
type imageInfo struct {
	Format string // jpg, png, gif, webp
	Width  int
	Height int
	MD5    string
}

// inspectImage decodes the header of data to learn its format and size.
func inspectImage(data []byte) (*imageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if format == "jpeg" {
		format = "jpg"
	}
	return &imageInfo{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		MD5:    md5Hex(data),
	}, nil
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// storageKey buckets objects by the first two hex digits of their hash.
func storageKey(md5Hash, format string) string {
	return fmt.Sprintf("%s/%s.%s", md5Hash[:2], md5Hash, format)
}

// memeIDFor derives a stable meme ID from its source so that re-seeding the
// same item keeps the same ID (and title index point).
func memeIDFor(sourceType, sourceID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceType+":"+sourceID)).String()
}
