package services

import (
	"errors"
	"fmt"
	"time"

	"echoboard/internal/apperr"
	"echoboard/internal/models"
	"echoboard/internal/utils"

	"gorm.io/gorm"
)

const (
	policyCacheTTL = 30 * time.Second
	rosterCacheTTL = time.Minute
)

// BoardPolicy is the slice of board state consulted before create operations.
type BoardPolicy struct {
	BoardID        uint
	WorkspaceID    uint
	AllowAnonymous bool
	AllowComments  bool
	IsLocked       bool
}

// PolicyService fronts the board/workspace policy store, the member roster
// and the permission oracle, with short-lived caches on the read paths.
type PolicyService struct {
	db    *gorm.DB
	cache *utils.GlobalCache
}

func NewPolicyService(db *gorm.DB) *PolicyService {
	return &PolicyService{db: db, cache: utils.NewCache()}
}

func (s *PolicyService) BoardPolicy(boardID uint) (*BoardPolicy, error) {
	cacheKey := fmt.Sprintf("board:policy:%d", boardID)
	if cached := s.cache.Get(cacheKey); cached != nil {
		if policy, ok := cached.(*BoardPolicy); ok {
			return policy, nil
		}
	}

	var board models.Board
	if err := s.db.First(&board, boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("board %d not found", boardID)
		}
		return nil, err
	}

	policy := &BoardPolicy{
		BoardID:        board.ID,
		WorkspaceID:    board.WorkspaceID,
		AllowAnonymous: board.AllowAnonymous,
		AllowComments:  board.AllowComments,
		IsLocked:       board.IsLocked,
	}
	s.cache.Set(cacheKey, policy, policyCacheTTL)
	return policy, nil
}

// ActiveMembers returns the workspace roster consumed by the mention resolver.
func (s *PolicyService) ActiveMembers(workspaceID uint) ([]models.User, error) {
	cacheKey := fmt.Sprintf("workspace:roster:%d", workspaceID)
	if cached := s.cache.Get(cacheKey); cached != nil {
		if members, ok := cached.([]models.User); ok {
			return members, nil
		}
	}

	var members []models.User
	err := s.db.Where("workspace_id = ? AND is_active = ?", workspaceID, true).
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKey, members, rosterCacheTTL)
	return members, nil
}

// Moderators returns the users who receive report notifications.
func (s *PolicyService) Moderators(workspaceID uint) ([]models.User, error) {
	var mods []models.User
	err := s.db.Where("workspace_id = ? AND is_active = ? AND role IN ?",
		workspaceID, true, []string{"owner", "moderator"}).
		Find(&mods).Error
	return mods, err
}

// CanModerate answers the permission oracle question: may this user
// moderate/merge/pin within the workspace.
func (s *PolicyService) CanModerate(userID, workspaceID uint) (bool, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.WorkspaceID != workspaceID || !user.IsActive {
		return false, nil
	}
	return user.CanModerate(), nil
}

// InvalidateBoard drops the cached policy after board settings change.
func (s *PolicyService) InvalidateBoard(boardID uint) {
	s.cache.Delete(fmt.Sprintf("board:policy:%d", boardID))
}
