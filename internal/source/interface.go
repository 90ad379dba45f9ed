package source

import (
	"context"
	"fmt"
	"strconv"
)

// MemeItem is one image offered by a catalog source.
type MemeItem struct {
	SourceID   string // unique within the source
	Name       string
	Category   string
	Tags       []string
	Likes      *int // nil when the source has no engagement data
	IsAnimated bool
	Format     string // jpg, png, gif, webp
	LocalPath  string
}

// Source feeds the catalog seeding pipeline.
type Source interface {
	// ID returns the stable identifier stored as Meme.SourceType.
	ID() string

	// DisplayName returns a human-readable name for logs and the data_sources table.
	DisplayName() string

	// FetchBatch returns up to limit items after cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: value returned by the previous call, empty for the first page.
	//   - limit: maximum number of items.
	// Returns:
	//   - items: next batch of items.
	//   - nextCursor: cursor for the following batch, empty when exhausted.
	//   - err: non-nil if the source cannot be read.
	FetchBatch(ctx context.Context, cursor string, limit int) (items []MemeItem, nextCursor string, err error)
}

// Page slices items by an index cursor, the paging scheme of every file-backed source.
func Page(items []MemeItem, cursor string, limit int) ([]MemeItem, string, error) {
	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil || start < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	if start >= len(items) {
		return []MemeItem{}, "", nil
	}

	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}

	next := ""
	if end < len(items) {
		next = strconv.Itoa(end)
	}
	return items[start:end], next, nil
}

// FormatFromExt maps a file extension (with or without dot) to an image format,
// empty when the extension is not an image.
func FormatFromExt(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	switch ext {
	case "jpg", "jpeg", "JPG", "JPEG":
		return "jpg"
	case "png", "PNG":
		return "png"
	case "gif", "GIF":
		return "gif"
	case "webp", "WEBP":
		return "webp"
	default:
		return ""
	}
}
