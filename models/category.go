package models

import "time"

// Category is a taxonomy record. Posts reference exactly one category;
// deleting or deactivating a category does not cascade to its posts.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"size:500" json:"description"`
	Color       string    `gorm:"size:16" json:"color"`
	Icon        string    `gorm:"size:64" json:"icon"`
	ParentID    *uint     `gorm:"index" json:"parent_id"`
	Active      bool      `gorm:"default:true" json:"active"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
