package models

import (
	"time"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WorkspaceID uint      `gorm:"not null;index" json:"workspace_id"`
	Username    string    `gorm:"not null" json:"username"` // display name, used for @mentions
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"` // bcrypt hash
	Role        string    `gorm:"size:20;default:'member';not null" json:"role"` // member, moderator, owner
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CanModerate reports whether the user holds moderation rights in the
// workspace (pin, merge, delete others' comments).
func (u *User) CanModerate() bool {
	return u.Role == "owner" || u.Role == "moderator"
}
