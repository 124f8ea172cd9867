package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reply on a tale, listed oldest-first.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	TaleID    uint           `gorm:"not null;index" json:"tale_id"`
	Content   string         `gorm:"not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author Profile `gorm:"foreignKey:UserID;references:UserID" json:"profile"`
}
