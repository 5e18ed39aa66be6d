package models

import (
	"time"
)

// Board groups feedback items and carries the write policy consulted before
// every create operation.
type Board struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	WorkspaceID    uint      `gorm:"not null;index" json:"workspace_id"`
	Workspace      Workspace `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name           string    `gorm:"not null" json:"name"`
	Slug           string    `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	Description    string    `json:"description"`
	AllowAnonymous bool      `gorm:"default:true" json:"allow_anonymous"`
	AllowComments  bool      `gorm:"default:true" json:"allow_comments"`
	IsLocked       bool      `gorm:"default:false" json:"is_locked"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
