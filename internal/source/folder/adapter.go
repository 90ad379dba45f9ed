package folder

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/timmy/memeverse/internal/domain"
	"github.com/timmy/memeverse/internal/source"
)

// SourceID is the Meme.SourceType of folder-seeded memes.
const SourceID = "folder"

// Adapter walks a directory tree of images. The first directory level below
// the root becomes the category; files directly under the root are uncategorized.
type Adapter struct {
	root string

	once  sync.Once
	items []source.MemeItem
	err   error
}

// NewAdapter creates a folder adapter rooted at root.
func NewAdapter(root string) *Adapter {
	return &Adapter{root: root}
}

func (a *Adapter) ID() string {
	return SourceID
}

func (a *Adapter) DisplayName() string {
	return "Folder (" + a.root + ")"
}

func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.MemeItem, string, error) {
	a.once.Do(func() { a.err = a.load() })
	if a.err != nil {
		return nil, "", fmt.Errorf("failed to scan %s: %w", a.root, a.err)
	}
	return source.Page(a.items, cursor, limit)
}

func (a *Adapter) load() error {
	return filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != a.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		format := source.FormatFromExt(filepath.Ext(d.Name()))
		if format == "" {
			return nil
		}

		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		category := ""
		if i := strings.Index(rel, "/"); i > 0 {
			category = strings.ToLower(rel[:i])
		}

		a.items = append(a.items, source.MemeItem{
			SourceID:   rel,
			Name:       domain.TitleFromFilename(d.Name()),
			Category:   category,
			IsAnimated: format == "gif",
			Format:     format,
			LocalPath:  path,
		})
		return nil
	})
}
