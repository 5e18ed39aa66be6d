package models

import (
	"time"
)

// Mention is created only for comments authored by an identified user, after
// the comment itself has been written.
type Mention struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CommentID       uint      `gorm:"not null;index;uniqueIndex:idx_comment_mentioned" json:"comment_id"`
	Comment         Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	MentionedUserID uint      `gorm:"not null;index;uniqueIndex:idx_comment_mentioned" json:"mentioned_user_id"`
	MentionedByID   uint      `gorm:"not null;index" json:"mentioned_by_id"`
	IsRead          bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}
