package models

import (
	"time"

	"gorm.io/gorm"
)

// Tale is a user-authored journal post. Description is a rich-HTML string
// produced by the client's editor and stored opaque.
type Tale struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	Category      string     `gorm:"not null" json:"category"`
	Title         string     `gorm:"not null" json:"title"`
	Description   string     `json:"description"`
	CoverImageURL string     `json:"cover_image_url"`
	Tags          string     `json:"tags"`
	EventDate     *time.Time `json:"event_date"`

	Author Profile `gorm:"foreignKey:UserID;references:UserID" json:"profile"`

	// LikeCount is not persisted; recomputed from like rows on every load.
	LikeCount int `gorm:"-" json:"like_count"`
	// CommentCount is not persisted; recomputed from comment rows on every load.
	CommentCount int `gorm:"-" json:"comment_count"`
	// Liked indicates whether the requesting user has liked this tale (computed).
	Liked bool `gorm:"-" json:"user_has_liked"`
	// Comments is populated oldest-first by the feed assembly.
	Comments []*Comment `gorm:"-" json:"comments,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
