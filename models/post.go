package models

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ValidStatus reports whether s is a known post status.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Post represents an article written by a user. The slug is unique and
// regenerated whenever the title changes. Likes live in post_likes with a
// unique (post_id, user_id) pair so the toggle stays idempotent under races.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Slug       string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Status     string    `gorm:"size:16;default:'draft';index" json:"status"`
	Tags       string    `gorm:"size:512" json:"-"`
	Featured   bool      `gorm:"default:false" json:"featured"`
	Views      int64     `gorm:"default:0" json:"views"`
	AuthorID   uint      `gorm:"index;not null" json:"author_id"`
	CategoryID uint      `gorm:"index;not null" json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Author   User       `gorm:"foreignKey:AuthorID" json:"author"`
	Category Category   `gorm:"foreignKey:CategoryID" json:"category"`
	Comments []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
	Likes    []PostLike `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// CommentCount is scanned from a COUNT subquery on list reads, where the
	// comment rows themselves are not loaded.
	CommentCount int64 `gorm:"->;-:migration" json:"-"`
}

// PostLike records one user liking one post.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"uniqueIndex:idx_post_user;not null" json:"post_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_post_user;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TagList splits the stored tag column into a slice.
func (p *Post) TagList() []string {
	if strings.TrimSpace(p.Tags) == "" {
		return []string{}
	}
	parts := strings.Split(p.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SetTags joins a tag slice into the stored column, dropping empties.
func (p *Post) SetTags(tags []string) {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	p.Tags = strings.Join(clean, ",")
}

// ReadingTime estimates minutes to read at 200 words per minute, rounded up.
// Empty content reads in zero minutes.
func (p *Post) ReadingTime() int {
	words := len(strings.Fields(p.Content))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / 200.0))
}

// MarshalJSON adds the derived fields (tags, like_count, comment_count,
// reading_time) to the serialized post. The comment count comes from the
// loaded comment rows when present, the scanned subquery count otherwise.
func (p Post) MarshalJSON() ([]byte, error) {
	comments := int(p.CommentCount)
	if len(p.Comments) > 0 {
		comments = len(p.Comments)
	}
	type alias Post
	return json.Marshal(struct {
		alias
		TagList      []string `json:"tags"`
		LikeCount    int      `json:"like_count"`
		CommentCount int      `json:"comment_count"`
		ReadingTime  int      `json:"reading_time"`
	}{
		alias:        alias(p),
		TagList:      p.TagList(),
		LikeCount:    len(p.Likes),
		CommentCount: comments,
		ReadingTime:  p.ReadingTime(),
	})
}
