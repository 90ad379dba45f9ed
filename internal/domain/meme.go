package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// MemeStatus represents the lifecycle status of a meme record.
type MemeStatus string

const (
	MemeStatusPending MemeStatus = "pending"
	MemeStatusActive  MemeStatus = "active"
	MemeStatusHidden  MemeStatus = "hidden"
)

// Well-known source types for Meme.SourceType.
const (
	SourceTypeUpload  = "upload"
	SourceTypeStaging = "staging"
	SourceTypeFolder  = "folder"
)

// CategoryUserUploaded is the category assigned to memes created through the upload endpoint.
const CategoryUserUploaded = "user-uploaded"

// StringArray stores a string slice as a JSON text column.
type StringArray []string

// Value implements driver.Valuer.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded array, "[]" for nil.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
// Parameters:
//   - value: raw column value ([]byte, string or nil).
//
// Returns:
//   - error: non-nil if the value is not JSON text.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	if len(bytes) == 0 {
		*a = StringArray{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Meme is a shareable image with its social metadata.
// Likes is nullable: catalog items seeded without engagement data leave it empty
// and clients simulate a count for display. CommentCount mirrors len(Comments)
// so listings can sort on it.
type Meme struct {
	ID           string      `gorm:"type:text;primaryKey" json:"id"`
	Name         string      `gorm:"type:text;not null;index:idx_memes_name" json:"name"`
	SourceType   string      `gorm:"type:text;not null;index:idx_memes_source,unique" json:"-"`
	SourceID     string      `gorm:"type:text;not null;index:idx_memes_source,unique" json:"-"`
	StorageKey   string      `gorm:"type:text" json:"-"`
	URL          string      `gorm:"type:text" json:"url"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Format       string      `json:"format,omitempty"`
	IsAnimated   bool        `json:"is_animated"`
	FileSize     int64       `json:"-"`
	MD5Hash      string      `gorm:"index:idx_memes_md5" json:"-"`
	Tags         StringArray `gorm:"type:text" json:"tags"`
	Category     string      `gorm:"type:text;index:idx_memes_category" json:"category"`
	Likes        *int        `json:"likes,omitempty"`
	Comments     StringArray `gorm:"type:text" json:"comments"`
	CommentCount int         `gorm:"default:0;index:idx_memes_comment_count" json:"-"`
	Status       MemeStatus  `gorm:"type:text;index:idx_memes_status;default:active" json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"-"`
}

// TableName returns the database table name for Meme.
func (Meme) TableName() string {
	return "memes"
}

// LikeCount returns the stored like count, zero when absent.
func (m *Meme) LikeCount() int {
	if m.Likes == nil {
		return 0
	}
	return *m.Likes
}
