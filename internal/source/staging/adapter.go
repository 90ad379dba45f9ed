package staging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/timmy/memeverse/internal/domain"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/source"
)

const (
	// ManifestFileName is the JSON Lines manifest inside a staging directory.
	ManifestFileName = "manifest.jsonl"
	// ImagesDir holds the staged image files.
	ImagesDir = "images"
)

// ManifestItem is one line of manifest.jsonl.
type ManifestItem struct {
	ID         string   `json:"id"`
	Filename   string   `json:"filename"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Likes      *int     `json:"likes"`
	IsAnimated bool     `json:"is_animated"`
	Format     string   `json:"format"`
}

// Adapter reads a staging directory: <base>/<name>/manifest.jsonl plus images/.
type Adapter struct {
	basePath string
	name     string

	once  sync.Once
	items []source.MemeItem
	err   error
}

// NewAdapter creates a staging adapter for <basePath>/<name>.
func NewAdapter(basePath, name string) *Adapter {
	return &Adapter{basePath: basePath, name: name}
}

func (a *Adapter) ID() string {
	return "staging:" + a.name
}

func (a *Adapter) DisplayName() string {
	return fmt.Sprintf("Staging (%s)", a.name)
}

// FetchBatch loads the manifest on first use and pages through it.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.MemeItem, string, error) {
	a.once.Do(func() { a.err = a.load(ctx) })
	if a.err != nil {
		return nil, "", fmt.Errorf("failed to load staging items: %w", a.err)
	}
	return source.Page(a.items, cursor, limit)
}

// Count returns the number of usable manifest entries.
func (a *Adapter) Count(ctx context.Context) (int, error) {
	a.once.Do(func() { a.err = a.load(ctx) })
	return len(a.items), a.err
}

func (a *Adapter) load(ctx context.Context) error {
	dir := filepath.Join(a.basePath, a.name)
	manifestPath := filepath.Join(dir, ManifestFileName)

	file, err := os.Open(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("manifest file not found: %s", manifestPath)
		}
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	skipped := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry ManifestItem
		if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.Filename == "" {
			skipped++
			continue
		}

		localPath := filepath.Join(dir, ImagesDir, entry.Filename)
		if _, err := os.Stat(localPath); err != nil {
			skipped++
			continue
		}

		id := entry.ID
		if id == "" {
			id = entry.Filename
		}
		name := entry.Name
		if name == "" {
			name = domain.TitleFromFilename(entry.Filename)
		}
		format := entry.Format
		if format == "" {
			format = source.FormatFromExt(filepath.Ext(entry.Filename))
		}

		a.items = append(a.items, source.MemeItem{
			SourceID:   a.name + "_" + id,
			Name:       name,
			Category:   entry.Category,
			Tags:       entry.Tags,
			Likes:      entry.Likes,
			IsAnimated: entry.IsAnimated || format == "gif",
			Format:     format,
			LocalPath:  localPath,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading manifest: %w", err)
	}

	if skipped > 0 {
		logger.With(logger.Fields{logger.FieldSource: a.ID(), logger.FieldCount: skipped}).
			Warn(ctx, "Skipped unusable manifest entries")
	}

	sort.Slice(a.items, func(i, j int) bool {
		return a.items[i].SourceID < a.items[j].SourceID
	})
	return nil
}

// List returns the staging directories under basePath that carry a manifest.
func List(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(basePath, entry.Name(), ManifestFileName)); err == nil {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
