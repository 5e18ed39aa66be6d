package models

import (
	"time"
)

type MergeType string

const (
	MergeTypeDuplicate MergeType = "duplicate"
	MergeTypeRelated   MergeType = "related"
)

// MergeRecord is the audit trail for duplicate consolidation. At most one
// record may exist per unordered item pair; the merge graph stays acyclic
// because archived items can be neither source nor target again.
type MergeRecord struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	SourceItemID uint         `gorm:"not null;index" json:"source_item_id"`
	SourceItem   FeedbackItem `gorm:"foreignKey:SourceItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TargetItemID uint         `gorm:"not null;index" json:"target_item_id"`
	TargetItem   FeedbackItem `gorm:"foreignKey:TargetItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	MergedByID   uint         `gorm:"not null;index" json:"merged_by_id"`
	MergeType    MergeType    `gorm:"size:16;default:'duplicate';not null" json:"merge_type"`
	Reason       string       `gorm:"type:text" json:"reason"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (MergeRecord) TableName() string {
	return "merge_records"
}
