package services

import (
	"errors"
	"fmt"

	"echoboard/internal/apperr"
	"echoboard/internal/identity"
	"echoboard/internal/models"
	"echoboard/internal/utils"

	"gorm.io/gorm"
)

// ItemService handles feedback item submission and the light mutations that
// are not part of the merge/vote/comment machinery.
type ItemService struct {
	db        *gorm.DB
	policy    *PolicyService
	reactions *ReactionService
	activity  *ActivityService
	notifier  *NotifierService
}

func NewItemService(db *gorm.DB) *ItemService {
	return &ItemService{
		db:        db,
		policy:    NewPolicyService(db),
		reactions: NewReactionService(db),
		activity:  NewActivityService(db),
		notifier:  NewNotifierService(db),
	}
}

type CreateItemParams struct {
	BoardID  uint
	Identity identity.Identity
	Title    string
	Body     string
	TagIDs   []uint
}

func (s *ItemService) Create(p CreateItemParams) (*models.FeedbackItem, error) {
	if err := p.Identity.Require(); err != nil {
		return nil, err
	}
	if p.Title == "" {
		return nil, apperr.Invalid("title is empty")
	}

	policy, err := s.policy.BoardPolicy(p.BoardID)
	if err != nil {
		return nil, err
	}
	if policy.IsLocked {
		return nil, apperr.Forbidden("board is locked")
	}
	if p.Identity.IsAnonymous() && !policy.AllowAnonymous {
		return nil, apperr.Forbidden("board does not allow anonymous submissions")
	}

	var tags []models.Tag
	if len(p.TagIDs) > 0 {
		if err := s.db.Where("workspace_id = ? AND id IN ?", policy.WorkspaceID, p.TagIDs).Find(&tags).Error; err != nil {
			return nil, err
		}
	}

	item := models.FeedbackItem{
		Pid:     utils.RandStringBytesMaskImpr(8),
		BoardID: p.BoardID,
		Title:   p.Title,
		Body:    p.Body,
		Status:  models.ItemStatusPublished,
		Tags:    tags,
	}
	p.Identity.Apply(&item.UserID, &item.Fingerprint)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return s.reactions.InitialSelfVoteTx(tx, models.TargetPost, item.ID, p.Identity)
	})
	if err != nil {
		return nil, err
	}
	item.UpvoteCount = 1

	s.activity.RecordAsync(policy.WorkspaceID, item.UserID, "item.create", "feedback_item", item.ID,
		models.JSONB{"board_id": p.BoardID})
	s.notifier.AnnounceAsync(fmt.Sprintf("New feedback: %q", item.Title))

	return &item, nil
}

func (s *ItemService) GetByPid(pid string) (*models.FeedbackItem, error) {
	var item models.FeedbackItem
	err := s.db.Preload("User").Preload("Board").Preload("Tags").
		Where("pid = ?", pid).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("feedback item %s not found", pid)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByBoard returns published items, most upvoted first.
func (s *ItemService) ListByBoard(boardID uint, limit, offset int) ([]models.FeedbackItem, error) {
	var items []models.FeedbackItem
	err := s.db.Preload("User").Preload("Tags").
		Where("board_id = ? AND status = ?", boardID, models.ItemStatusPublished).
		Order("upvote_count DESC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&items).Error
	return items, err
}

func (s *ItemService) Update(itemID uint, ident identity.Identity, title, body string) (*models.FeedbackItem, error) {
	if err := ident.Require(); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, apperr.Invalid("title is empty")
	}

	var item models.FeedbackItem
	if err := s.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("feedback item %d not found", itemID)
		}
		return nil, err
	}
	if item.IsArchived() {
		return nil, apperr.Forbidden("feedback item %s is archived", item.Pid)
	}
	if !ident.Owns(item.UserID, item.Fingerprint) {
		return nil, apperr.Forbidden("only the author may edit this item")
	}

	err := s.db.Model(&item).Updates(map[string]interface{}{
		"title": title,
		"body":  body,
	}).Error
	if err != nil {
		return nil, err
	}
	item.Title = title
	item.Body = body
	return &item, nil
}
