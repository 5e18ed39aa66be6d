package models

import (
	"time"
)

type Report struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      *uint      `gorm:"index" json:"user_id"`
	Fingerprint string     `gorm:"size:64" json:"-"`
	ItemType    TargetKind `gorm:"size:16;not null" json:"item_type"`
	ItemID      uint       `gorm:"not null;index" json:"item_id"`
	Reason      string     `gorm:"type:text" json:"reason"`
	CreatedAt   time.Time  `json:"created_at"`
}
