package services

import (
	"errors"
	"fmt"
	"log"

	"echoboard/internal/apperr"
	"echoboard/internal/models"

	"gorm.io/gorm"
)

// MergeService consolidates duplicate feedback items. A merge folds the
// source's engagement into the target inside one transaction, archives the
// source and records the edge. Archived items can be neither source nor
// target of a later merge, which keeps the merge graph shallow and acyclic.
type MergeService struct {
	db       *gorm.DB
	policy   *PolicyService
	activity *ActivityService
	notifier *NotifierService
}

func NewMergeService(db *gorm.DB) *MergeService {
	return &MergeService{
		db:       db,
		policy:   NewPolicyService(db),
		activity: NewActivityService(db),
		notifier: NewNotifierService(db),
	}
}

// Merge consolidates source into target:
// vote counts are summed (reactions are not re-attributed individually),
// comments are re-parented, tags are unioned, the source is archived with
// DuplicateOfID set, and one MergeRecord is written. All of it commits or
// none of it does.
func (s *MergeService) Merge(sourceID, targetID uint, mergedBy uint, mergeType models.MergeType, reason string) (*models.MergeRecord, error) {
	source, target, err := s.validatePair(sourceID, targetID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.policy.CanModerate(mergedBy, source.Board.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.Forbidden("merging requires moderation rights in the workspace")
	}

	if mergeType == "" {
		mergeType = models.MergeTypeDuplicate
	}

	record := models.MergeRecord{
		SourceItemID: source.ID,
		TargetItemID: target.ID,
		MergedByID:   mergedBy,
		MergeType:    mergeType,
		Reason:       reason,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// O(1) vote consolidation: raw counts are summed, so an identity
		// that voted on both items is counted twice afterwards.
		if err := tx.Model(&models.FeedbackItem{}).Where("id = ?", target.ID).
			UpdateColumn("upvote_count", gorm.Expr("upvote_count + ?", source.UpvoteCount)).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Comment{}).Where("item_id = ?", source.ID).
			UpdateColumn("item_id", target.ID).Error; err != nil {
			return err
		}

		// Comment counters follow the re-parented rows via a live recount.
		for _, itemID := range []uint{target.ID, source.ID} {
			var live int64
			if err := tx.Model(&models.Comment{}).Where("item_id = ?", itemID).Count(&live).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.FeedbackItem{}).Where("id = ?", itemID).
				UpdateColumn("comment_count", live).Error; err != nil {
				return err
			}
		}

		if err := s.unionTags(tx, source, target); err != nil {
			return err
		}

		if err := tx.Model(&models.FeedbackItem{}).Where("id = ?", source.ID).
			Updates(map[string]interface{}{
				"status":          models.ItemStatusArchived,
				"duplicate_of_id": target.ID,
			}).Error; err != nil {
			return err
		}

		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}

	s.activity.RecordAsync(source.Board.WorkspaceID, &mergedBy, "item.merge", "feedback_item", source.ID,
		models.JSONB{
			"target_id":           target.ID,
			"source_upvote_count": source.UpvoteCount,
			"target_upvote_count": target.UpvoteCount,
		})
	if source.UserID != nil && *source.UserID != mergedBy {
		s.notifier.NotifyAsync(*source.UserID, &mergedBy, models.NotificationTypeMerge,
			fmt.Sprintf("your feedback %q was merged into %q", source.Title, target.Title))
	}
	s.notifier.AnnounceAsync(fmt.Sprintf("Merged feedback %q into %q", source.Title, target.Title))

	return &record, nil
}

// MergeHere folds each source into target independently, skipping sources
// that no longer qualify so one bad id does not abort the batch.
func (s *MergeService) MergeHere(targetID uint, sourceIDs []uint, mergedBy uint, reason string) error {
	var target models.FeedbackItem
	if err := s.db.First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("feedback item %d not found", targetID)
		}
		return err
	}
	if target.IsArchived() {
		return apperr.Conflict("feedback item %d is archived and cannot absorb merges", targetID)
	}

	for _, sourceID := range sourceIDs {
		if _, err := s.Merge(sourceID, targetID, mergedBy, models.MergeTypeDuplicate, reason); err != nil {
			if apperr.IsKind(err, apperr.KindConflict) || apperr.IsKind(err, apperr.KindNotFound) {
				log.Printf("MergeHere: skipping source %d: %v", sourceID, err)
				continue
			}
			return err
		}
	}
	return nil
}

// validatePair loads both endpoints and enforces the merge-graph invariants:
// no self-merge, same workspace, neither endpoint archived, and no existing
// record linking the pair in either direction.
func (s *MergeService) validatePair(sourceID, targetID uint) (*models.FeedbackItem, *models.FeedbackItem, error) {
	if sourceID == targetID {
		return nil, nil, apperr.Conflict("an item cannot be merged into itself")
	}

	var source, target models.FeedbackItem
	if err := s.db.Preload("Board").First(&source, sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("feedback item %d not found", sourceID)
		}
		return nil, nil, err
	}
	if err := s.db.Preload("Board").First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("feedback item %d not found", targetID)
		}
		return nil, nil, err
	}

	if source.Board.WorkspaceID != target.Board.WorkspaceID {
		return nil, nil, apperr.Conflict("items belong to different workspaces")
	}
	if source.IsArchived() {
		return nil, nil, apperr.Conflict("feedback item %d is already merged", sourceID)
	}
	if target.IsArchived() {
		return nil, nil, apperr.Conflict("feedback item %d is archived and cannot absorb merges", targetID)
	}

	var existing int64
	err := s.db.Model(&models.MergeRecord{}).
		Where("(source_item_id = ? AND target_item_id = ?) OR (source_item_id = ? AND target_item_id = ?)",
			sourceID, targetID, targetID, sourceID).
		Count(&existing).Error
	if err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return nil, nil, apperr.Conflict("items %d and %d are already linked by a merge", sourceID, targetID)
	}

	return &source, &target, nil
}

// unionTags adds the source's tags to the target, skipping tags the target
// already carries.
func (s *MergeService) unionTags(tx *gorm.DB, source, target *models.FeedbackItem) error {
	var sourceTags, targetTags []models.Tag
	if err := tx.Model(source).Association("Tags").Find(&sourceTags); err != nil {
		return err
	}
	if err := tx.Model(target).Association("Tags").Find(&targetTags); err != nil {
		return err
	}

	have := make(map[uint]bool, len(targetTags))
	for _, tag := range targetTags {
		have[tag.ID] = true
	}

	var missing []models.Tag
	for _, tag := range sourceTags {
		if !have[tag.ID] {
			missing = append(missing, tag)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return tx.Model(target).Association("Tags").Append(&missing)
}
