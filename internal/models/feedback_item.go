package models

import (
	"time"
)

type ItemStatus string

const (
	ItemStatusPublished ItemStatus = "published"
	ItemStatusArchived  ItemStatus = "archived" // terminal, set when merged away as a duplicate
)

type FeedbackItem struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Pid     string `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	BoardID uint   `gorm:"not null;index" json:"board_id"`
	Board   Board  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"board"`

	// Author: UserID for authenticated submitters, Fingerprint for anonymous
	// ones. Exactly one is set.
	UserID      *uint  `gorm:"index" json:"user_id"`
	User        *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user,omitempty"`
	Fingerprint string `gorm:"size:64;index" json:"-"`

	Title  string     `gorm:"not null" json:"title"`
	Body   string     `gorm:"type:text" json:"body"`
	Status ItemStatus `gorm:"size:16;default:'published';not null;index" json:"status"`

	// Set only when the item was archived via a duplicate merge.
	DuplicateOfID *uint `gorm:"index" json:"duplicate_of_id"`

	// Denormalized counters. Mutated with SQL-level arithmetic only.
	UpvoteCount  int `gorm:"default:0" json:"upvote_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	Tags []Tag `gorm:"many2many:item_tags;" json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *FeedbackItem) IsArchived() bool {
	return i.Status == ItemStatusArchived
}
