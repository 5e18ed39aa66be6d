package models

import (
	"time"
)

// Activity is the audit sink row: one structured event per successful
// mutation. Writes are fire-and-forget relative to the mutation itself.
type Activity struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"uniqueIndex;size:36;not null" json:"event_id"`
	WorkspaceID uint      `gorm:"not null;index" json:"workspace_id"`
	UserID      *uint     `gorm:"index" json:"user_id"` // nil for anonymous actors
	Action      string    `gorm:"size:64;not null;index" json:"action"`
	EntityKind  string    `gorm:"size:32;not null" json:"entity_kind"`
	EntityID    uint      `gorm:"not null" json:"entity_id"`
	Metadata    JSONB     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt   time.Time `json:"created_at"`
}
