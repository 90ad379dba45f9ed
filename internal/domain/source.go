package domain

import "time"

// DataSource tracks a catalog source and when it was last synced.
type DataSource struct {
	ID         string     `gorm:"type:text;primaryKey" json:"id"`
	Name       string     `gorm:"type:text;not null" json:"name"`
	Type       string     `gorm:"type:text;not null" json:"type"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	IsEnabled  bool       `gorm:"default:true" json:"is_enabled"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name for DataSource.
func (DataSource) TableName() string {
	return "data_sources"
}
