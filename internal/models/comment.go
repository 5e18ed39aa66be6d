package models

import (
	"time"
)

type Comment struct {
	ID     uint         `gorm:"primaryKey" json:"id"`
	Cid    string       `gorm:"uniqueIndex;size:8;not null" json:"cid"`
	ItemID uint         `gorm:"not null;index" json:"item_id"`
	Item   FeedbackItem `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// Tree edge. Nil for root comments; Depth is parent.Depth+1, root = 0.
	ParentID *uint    `gorm:"index" json:"parent_id"`
	Parent   *Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Depth    int      `gorm:"default:0;not null" json:"depth"`

	UserID      *uint  `gorm:"index" json:"user_id"`
	User        *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user,omitempty"`
	Fingerprint string `gorm:"size:64;index" json:"-"`
	DisplayName string `gorm:"size:64" json:"display_name"` // inline name for anonymous authors

	Content string `gorm:"type:text;not null" json:"content"`

	// Denormalized counters, repaired on delete.
	ReplyCount    int `gorm:"default:0" json:"reply_count"`
	UpvoteCount   int `gorm:"default:0" json:"upvote_count"`
	DownvoteCount int `gorm:"default:0" json:"downvote_count"`

	IsPinned bool `gorm:"default:false;index" json:"is_pinned"`
	IsEdited bool `gorm:"default:false" json:"is_edited"`

	// Free-form metadata: resolved mention names, image attachments.
	Metadata JSONB `gorm:"type:jsonb" json:"metadata"`

	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at"`
}
