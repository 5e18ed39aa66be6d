package models

import (
	"time"
)

type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WorkspaceID uint      `gorm:"not null;index;uniqueIndex:idx_ws_tag_name" json:"workspace_id"`
	Name        string    `gorm:"size:64;not null;uniqueIndex:idx_ws_tag_name" json:"name"`
	Color       string    `gorm:"size:16" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}
