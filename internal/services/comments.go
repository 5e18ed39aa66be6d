package services

import (
	"errors"
	"fmt"
	"time"

	"echoboard/internal/apperr"
	"echoboard/internal/identity"
	"echoboard/internal/models"
	"echoboard/internal/utils"

	"gorm.io/gorm"
)

// MaxCommentDepth bounds the reply tree server-side. Root comments sit at
// depth 0; a reply deeper than this is rejected regardless of what clients
// render.
const MaxCommentDepth = 3

// CommentService owns the threaded comment tree and its denormalized
// counters. Every multi-row mutation runs in one transaction; the per-item
// comment count is recomputed from a live count on delete so drift cannot
// accumulate.
type CommentService struct {
	db        *gorm.DB
	policy    *PolicyService
	reactions *ReactionService
	mentions  *MentionService
	activity  *ActivityService
	notifier  *NotifierService
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		db:        db,
		policy:    NewPolicyService(db),
		reactions: NewReactionService(db),
		mentions:  NewMentionService(db),
		activity:  NewActivityService(db),
		notifier:  NewNotifierService(db),
	}
}

type CreateCommentParams struct {
	ItemID      uint
	ParentID    *uint
	Identity    identity.Identity
	DisplayName string // inline name for anonymous authors, optional
	Content     string
	Attachments []string
}

func (s *CommentService) Create(p CreateCommentParams) (*models.Comment, error) {
	if err := p.Identity.Require(); err != nil {
		return nil, err
	}
	if p.Content == "" {
		return nil, apperr.Invalid("comment content is empty")
	}

	var item models.FeedbackItem
	if err := s.db.First(&item, p.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("feedback item %d not found", p.ItemID)
		}
		return nil, err
	}
	if item.IsArchived() {
		return nil, apperr.Forbidden("feedback item %s is archived", item.Pid)
	}

	policy, err := s.policy.BoardPolicy(item.BoardID)
	if err != nil {
		return nil, err
	}
	if policy.IsLocked {
		return nil, apperr.Forbidden("board is locked")
	}
	if !policy.AllowComments {
		return nil, apperr.Forbidden("board does not allow comments")
	}
	if p.Identity.IsAnonymous() && !policy.AllowAnonymous {
		return nil, apperr.Forbidden("board does not allow anonymous comments")
	}

	depth := 0
	var parent *models.Comment
	if p.ParentID != nil {
		parent = &models.Comment{}
		if err := s.db.First(parent, *p.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("parent comment %d not found", *p.ParentID)
			}
			return nil, err
		}
		if parent.ItemID != item.ID {
			return nil, apperr.Invalid("parent comment belongs to a different item")
		}
		depth = parent.Depth + 1
		if depth > MaxCommentDepth {
			return nil, apperr.Forbidden("reply depth limit reached")
		}
	}

	metadata := models.JSONB{}
	if len(p.Attachments) > 0 {
		attachments := make([]interface{}, len(p.Attachments))
		for i, a := range p.Attachments {
			attachments[i] = a
		}
		metadata["attachments"] = attachments
	}

	comment := models.Comment{
		Cid:         utils.RandStringBytesMaskImpr(8),
		ItemID:      item.ID,
		ParentID:    p.ParentID,
		Depth:       depth,
		DisplayName: utils.SanitizeText(p.DisplayName),
		Content:     p.Content,
		Metadata:    metadata,
	}
	p.Identity.Apply(&comment.UserID, &comment.Fingerprint)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if parent != nil {
			if err := tx.Model(&models.Comment{}).Where("id = ?", parent.ID).
				UpdateColumn("reply_count", gorm.Expr("reply_count + ?", 1)).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.FeedbackItem{}).Where("id = ?", item.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error; err != nil {
			return err
		}
		return s.reactions.InitialSelfVoteTx(tx, models.TargetComment, comment.ID, p.Identity)
	})
	if err != nil {
		return nil, err
	}
	comment.UpvoteCount = 1

	// Post-commit side effects. Mention resolution swallows its own errors;
	// notifications and the audit event never block the caller.
	if authorID, ok := p.Identity.UserID(); ok {
		s.mentions.ProcessComment(comment.ID, authorID)
		s.notifyThread(&item, &comment, authorID)
	}
	s.activity.RecordAsync(policy.WorkspaceID, comment.UserID, "comment.create", "comment", comment.ID,
		models.JSONB{"item_id": item.ID, "depth": depth})

	return &comment, nil
}

// notifyThread tells the parent-comment author (for replies) or the item
// author (for root comments) about the new comment. Anonymous authors have no
// inbox; self-replies are skipped.
func (s *CommentService) notifyThread(item *models.FeedbackItem, comment *models.Comment, actorID uint) {
	if comment.ParentID != nil {
		var parent models.Comment
		if err := s.db.First(&parent, *comment.ParentID).Error; err != nil {
			return
		}
		if parent.UserID != nil && *parent.UserID != actorID {
			s.notifier.NotifyAsync(*parent.UserID, &actorID, models.NotificationTypeReplyComment,
				fmt.Sprintf("replied to your comment on %q", item.Title))
		}
		return
	}
	if item.UserID != nil && *item.UserID != actorID {
		s.notifier.NotifyAsync(*item.UserID, &actorID, models.NotificationTypeCommentPost,
			fmt.Sprintf("commented on your feedback %q", item.Title))
	}
}

func (s *CommentService) Edit(commentID uint, ident identity.Identity, content string) (*models.Comment, error) {
	if err := ident.Require(); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, apperr.Invalid("comment content is empty")
	}

	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("comment %d not found", commentID)
		}
		return nil, err
	}
	if !ident.Owns(comment.UserID, comment.Fingerprint) {
		return nil, apperr.Forbidden("only the author may edit this comment")
	}

	now := time.Now()
	err := s.db.Model(&comment).Updates(map[string]interface{}{
		"content":   content,
		"is_edited": true,
		"edited_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	comment.Content = content
	comment.IsEdited = true
	comment.EditedAt = &now
	return &comment, nil
}

// Delete hard-deletes a comment and its reply subtree, then repairs the
// counters: the item's comment count is recomputed from a live count rather
// than blindly decremented, and the parent's reply count is floored at zero.
func (s *CommentService) Delete(commentID uint, ident identity.Identity) error {
	if err := ident.Require(); err != nil {
		return err
	}

	var comment models.Comment
	if err := s.db.Preload("Item.Board").First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("comment %d not found", commentID)
		}
		return err
	}

	if !ident.Owns(comment.UserID, comment.Fingerprint) {
		userID, ok := ident.UserID()
		if !ok {
			return apperr.Forbidden("only the author may delete this comment")
		}
		allowed, err := s.policy.CanModerate(userID, comment.Item.Board.WorkspaceID)
		if err != nil {
			return err
		}
		if !allowed {
			return apperr.Forbidden("only the author or a workspace moderator may delete this comment")
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		ids, err := s.subtreeIDs(tx, comment.ID)
		if err != nil {
			return err
		}

		// Ledger and mention rows referencing the subtree go with it.
		if err := tx.Where("target_kind = ? AND target_id IN ?", models.TargetComment, ids).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.Mention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if comment.ParentID != nil {
			if err := tx.Model(&models.Comment{}).Where("id = ?", *comment.ParentID).
				UpdateColumn("reply_count", decrFloorExpr("reply_count")).Error; err != nil {
				return err
			}
		}

		// Self-healing recount, not a blind decrement.
		var live int64
		if err := tx.Model(&models.Comment{}).Where("item_id = ?", comment.ItemID).Count(&live).Error; err != nil {
			return err
		}
		return tx.Model(&models.FeedbackItem{}).Where("id = ?", comment.ItemID).
			UpdateColumn("comment_count", live).Error
	})
	if err != nil {
		return err
	}

	var actorID *uint
	if id, ok := ident.UserID(); ok {
		actorID = &id
	}
	s.activity.RecordAsync(comment.Item.Board.WorkspaceID, actorID, "comment.delete", "comment", comment.ID,
		models.JSONB{"item_id": comment.ItemID})
	return nil
}

// subtreeIDs collects the comment and all live descendants, level by level.
// Depth is bounded, so this is at most MaxCommentDepth+1 queries.
func (s *CommentService) subtreeIDs(tx *gorm.DB, rootID uint) ([]uint, error) {
	ids := []uint{rootID}
	frontier := []uint{rootID}
	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}

// Pin marks or unmarks a comment as pinned. Moderation-only; no counter
// effects.
func (s *CommentService) Pin(commentID uint, pinned bool, ident identity.Identity) error {
	userID, ok := ident.UserID()
	if !ok {
		return apperr.Forbidden("only workspace moderators may pin comments")
	}

	var comment models.Comment
	if err := s.db.Preload("Item.Board").First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("comment %d not found", commentID)
		}
		return err
	}

	allowed, err := s.policy.CanModerate(userID, comment.Item.Board.WorkspaceID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.Forbidden("only workspace moderators may pin comments")
	}

	if err := s.db.Model(&comment).UpdateColumn("is_pinned", pinned).Error; err != nil {
		return err
	}
	s.activity.RecordAsync(comment.Item.Board.WorkspaceID, &userID, "comment.pin", "comment", comment.ID,
		models.JSONB{"pinned": pinned})
	return nil
}

// ListForItem returns an item's comments, pinned first, oldest first within
// each group.
func (s *CommentService) ListForItem(itemID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.Preload("User").
		Where("item_id = ?", itemID).
		Order("is_pinned DESC, created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}
