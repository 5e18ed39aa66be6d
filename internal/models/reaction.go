package models

import (
	"fmt"
	"time"
)

type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

type ReactionType string

const (
	ReactionUpvote   ReactionType = "upvote"
	ReactionDownvote ReactionType = "downvote"
)

// Reaction records at most one vote per (target, identity) pair. Uniqueness
// lives in the database, not only in application logic: UserID and Fingerprint
// are nullable and most databases exempt NULLs from unique indexes, so the
// derived VoterKey column carries the composite constraint instead.
type Reaction struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	TargetKind  TargetKind   `gorm:"size:16;not null;uniqueIndex:idx_reaction_target_voter" json:"target_kind"`
	TargetID    uint         `gorm:"not null;uniqueIndex:idx_reaction_target_voter;index" json:"target_id"`
	VoterKey    string       `gorm:"size:80;not null;uniqueIndex:idx_reaction_target_voter" json:"-"`
	UserID      *uint        `gorm:"index" json:"user_id"`
	Fingerprint string       `gorm:"size:64" json:"-"`
	Type        ReactionType `gorm:"size:16;not null" json:"type"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// UserVoterKey and AnonVoterKey build the VoterKey value for the two identity
// arms. The prefixes keep authenticated and anonymous rows disjoint even if a
// fingerprint happens to look like a numeric id.
func UserVoterKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func AnonVoterKey(fingerprint string) string {
	return "anon:" + fingerprint
}
