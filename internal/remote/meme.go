package remote

import (
	"errors"
	"time"
)

// Error kinds returned by the remote bindings.
var (
	ErrNetwork = errors.New("network error")
	ErrUpload  = errors.New("upload error")
)

// Meme is a meme as served by the meme API.
// Likes is nil when the server has no count; Comments is nil when absent.
type Meme struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Likes      *int      `json:"likes,omitempty"`
	Comments   []string  `json:"comments,omitempty"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags,omitempty"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	IsAnimated bool      `json:"is_animated,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Clone returns a deep copy of m.
func (m Meme) Clone() Meme {
	if m.Likes != nil {
		likes := *m.Likes
		m.Likes = &likes
	}
	if m.Comments != nil {
		m.Comments = append([]string(nil), m.Comments...)
	}
	if m.Tags != nil {
		m.Tags = append([]string(nil), m.Tags...)
	}
	return m
}

// ListQuery selects one page of a feed.
type ListQuery struct {
	Category string
	Page     int
	SortBy   string
	Limit    int
}

// ListPage is one page of a feed.
type ListPage struct {
	Memes []Meme
	Total int
	Page  int
}

// UploadResult describes an uploaded image.
type UploadResult struct {
	ID     string
	Title  string
	URL    string
	Width  int
	Height int
}
