package models

import "time"

// Profile holds the public-facing fields of a user. The row is created
// implicitly on first save (upsert), so a missing profile is an expected
// state, not an error.
type Profile struct {
	UserID    uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `json:"full_name"`
	Branch    string    `json:"branch"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	UpdatedAt time.Time `json:"updated_at"`
}
