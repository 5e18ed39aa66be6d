package services

import (
	"errors"
	"fmt"

	"echoboard/internal/apperr"
	"echoboard/internal/identity"
	"echoboard/internal/models"

	"gorm.io/gorm"
)

// ReactionState is returned to the caller after a toggle: the fresh counters
// and the identity's resulting reaction ("" when none).
type ReactionState struct {
	UpvoteCount   int                 `json:"upvote_count"`
	DownvoteCount int                 `json:"downvote_count"`
	Current       models.ReactionType `json:"current"`
}

// ReactionService keeps the vote ledger and the denormalized counters in
// sync. All counter mutations are SQL-level arithmetic inside the same
// transaction as the ledger row change; the (target, voter) uniqueness is a
// database constraint, so two racing first votes cannot both insert.
type ReactionService struct {
	db *gorm.DB
}

func NewReactionService(db *gorm.DB) *ReactionService {
	return &ReactionService{db: db}
}

// decrFloorExpr decrements a counter column without going below zero.
// CASE WHEN works on both postgres and the sqlite test driver.
func decrFloorExpr(col string) interface{} {
	return gorm.Expr(fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", col, col))
}

// Toggle applies the three-way vote toggle:
//  1. no existing reaction  -> insert, counter +1
//  2. same type exists      -> delete, counter -1 (the "un-vote")
//  3. different type exists -> retype, old counter -1, new counter +1
func (s *ReactionService) Toggle(kind models.TargetKind, targetID uint, ident identity.Identity, rtype models.ReactionType) (*ReactionState, error) {
	if err := ident.Require(); err != nil {
		return nil, err
	}
	if rtype != models.ReactionUpvote && rtype != models.ReactionDownvote {
		return nil, apperr.Invalid("unknown reaction type %q", rtype)
	}

	var state *ReactionState
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.checkTarget(tx, kind, targetID); err != nil {
			return err
		}

		var existing models.Reaction
		err := tx.Where("target_kind = ? AND target_id = ? AND voter_key = ?",
			kind, targetID, ident.VoterKey()).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.insert(tx, kind, targetID, ident, rtype); err != nil {
				return err
			}
			if err := s.bumpCounter(tx, kind, targetID, rtype, +1); err != nil {
				return err
			}
			state, err = s.readState(tx, kind, targetID, rtype)
			return err

		case err != nil:
			return err

		case existing.Type == rtype:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := s.bumpCounter(tx, kind, targetID, rtype, -1); err != nil {
				return err
			}
			state, err = s.readState(tx, kind, targetID, "")
			return err

		default:
			// Update mutates existing.Type in place, so hold on to the old
			// type or the wrong counter gets decremented.
			oldType := existing.Type
			if err := tx.Model(&existing).Update("type", rtype).Error; err != nil {
				return err
			}
			if err := s.bumpCounter(tx, kind, targetID, oldType, -1); err != nil {
				return err
			}
			if err := s.bumpCounter(tx, kind, targetID, rtype, +1); err != nil {
				return err
			}
			state, err = s.readState(tx, kind, targetID, rtype)
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// InitialSelfVote records the author's automatic upvote on their own
// submission. Called exactly once at creation, so unlike Toggle it is not
// idempotent.
func (s *ReactionService) InitialSelfVote(kind models.TargetKind, targetID uint, ident identity.Identity) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.InitialSelfVoteTx(tx, kind, targetID, ident)
	})
}

// InitialSelfVoteTx is the transactional form, used when creation and the
// self-vote must commit together.
func (s *ReactionService) InitialSelfVoteTx(tx *gorm.DB, kind models.TargetKind, targetID uint, ident identity.Identity) error {
	if err := ident.Require(); err != nil {
		return err
	}
	if err := s.insert(tx, kind, targetID, ident, models.ReactionUpvote); err != nil {
		return err
	}
	return s.bumpCounter(tx, kind, targetID, models.ReactionUpvote, +1)
}

// CurrentFor returns the identity's standing reaction on a target, "" if none.
func (s *ReactionService) CurrentFor(kind models.TargetKind, targetID uint, ident identity.Identity) (models.ReactionType, error) {
	if !ident.IsValid() {
		return "", nil
	}
	var reaction models.Reaction
	err := s.db.Where("target_kind = ? AND target_id = ? AND voter_key = ?",
		kind, targetID, ident.VoterKey()).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return reaction.Type, nil
}

func (s *ReactionService) checkTarget(tx *gorm.DB, kind models.TargetKind, targetID uint) error {
	switch kind {
	case models.TargetPost:
		var item models.FeedbackItem
		if err := tx.First(&item, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("feedback item %d not found", targetID)
			}
			return err
		}
		if item.IsArchived() {
			return apperr.Forbidden("feedback item %d is archived", targetID)
		}
		return nil
	case models.TargetComment:
		var comment models.Comment
		if err := tx.First(&comment, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("comment %d not found", targetID)
			}
			return err
		}
		return nil
	}
	return apperr.Invalid("unknown target kind %q", kind)
}

func (s *ReactionService) insert(tx *gorm.DB, kind models.TargetKind, targetID uint, ident identity.Identity, rtype models.ReactionType) error {
	reaction := models.Reaction{
		TargetKind: kind,
		TargetID:   targetID,
		VoterKey:   ident.VoterKey(),
		Type:       rtype,
	}
	ident.Apply(&reaction.UserID, &reaction.Fingerprint)
	return tx.Create(&reaction).Error
}

// bumpCounter applies the denormalized counter change for one reaction.
// Feedback items only denormalize upvotes; comments track both directions.
func (s *ReactionService) bumpCounter(tx *gorm.DB, kind models.TargetKind, targetID uint, rtype models.ReactionType, delta int) error {
	var model interface{}
	var col string

	switch kind {
	case models.TargetPost:
		if rtype != models.ReactionUpvote {
			return nil
		}
		model, col = &models.FeedbackItem{}, "upvote_count"
	case models.TargetComment:
		model = &models.Comment{}
		if rtype == models.ReactionUpvote {
			col = "upvote_count"
		} else {
			col = "downvote_count"
		}
	default:
		return apperr.Invalid("unknown target kind %q", kind)
	}

	query := tx.Model(model).Where("id = ?", targetID)
	if delta > 0 {
		return query.UpdateColumn(col, gorm.Expr(col+" + ?", 1)).Error
	}
	return query.UpdateColumn(col, decrFloorExpr(col)).Error
}

func (s *ReactionService) readState(tx *gorm.DB, kind models.TargetKind, targetID uint, current models.ReactionType) (*ReactionState, error) {
	state := &ReactionState{Current: current}
	switch kind {
	case models.TargetPost:
		var item models.FeedbackItem
		if err := tx.First(&item, targetID).Error; err != nil {
			return nil, err
		}
		state.UpvoteCount = item.UpvoteCount
		// Post downvotes have no denormalized column; count the ledger.
		var downs int64
		if err := tx.Model(&models.Reaction{}).
			Where("target_kind = ? AND target_id = ? AND type = ?", kind, targetID, models.ReactionDownvote).
			Count(&downs).Error; err != nil {
			return nil, err
		}
		state.DownvoteCount = int(downs)
	case models.TargetComment:
		var comment models.Comment
		if err := tx.First(&comment, targetID).Error; err != nil {
			return nil, err
		}
		state.UpvoteCount = comment.UpvoteCount
		state.DownvoteCount = comment.DownvoteCount
	}
	return state, nil
}
