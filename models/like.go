package models

import "time"

// Like marks that a user liked a tale. The (UserID, TaleID) pair is unique;
// the constraint is what makes the like toggle idempotent.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_tale" json:"user_id"`
	TaleID    uint      `gorm:"not null;uniqueIndex:idx_user_tale" json:"tale_id"`
	CreatedAt time.Time `json:"created_at"`
}
