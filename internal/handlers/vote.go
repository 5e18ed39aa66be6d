package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"echoboard/internal/apperr"
	"echoboard/internal/db"
	"echoboard/internal/models"
	"echoboard/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	reactions *services.ReactionService
	policy    *services.PolicyService
	notifier  *services.NotifierService
}

func NewVoteHandler() *VoteHandler {
	return &VoteHandler{
		reactions: services.NewReactionService(db.DB),
		policy:    services.NewPolicyService(db.DB),
		notifier:  services.NewNotifierService(db.DB),
	}
}

func targetKindParam(c *gin.Context) (models.TargetKind, uint, error) {
	var kind models.TargetKind
	switch c.Param("type") {
	case "post":
		kind = models.TargetPost
	case "comment":
		kind = models.TargetComment
	default:
		return "", 0, apperr.Invalid("unknown target type %q", c.Param("type"))
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return "", 0, apperr.Invalid("invalid target id")
	}
	return kind, uint(id), nil
}

// Vote toggles an upvote: first call casts it, the second call takes it back,
// and a standing downvote flips.
func (h *VoteHandler) Vote(c *gin.Context) {
	h.toggle(c, models.ReactionUpvote)
}

// Downvote is the same toggle for the other direction.
func (h *VoteHandler) Downvote(c *gin.Context) {
	h.toggle(c, models.ReactionDownvote)
}

func (h *VoteHandler) toggle(c *gin.Context, rtype models.ReactionType) {
	kind, id, err := targetKindParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	state, err := h.reactions.Toggle(kind, id, CurrentIdentity(c), rtype)
	if err != nil {
		RespondError(c, err)
		return
	}
	respondOK(c, state)
}

// Report flags an item or comment for the workspace moderators.
func (h *VoteHandler) Report(c *gin.Context) {
	kind, id, err := targetKindParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	ident := CurrentIdentity(c)
	if err := ident.Require(); err != nil {
		RespondError(c, err)
		return
	}

	var workspaceID uint
	var desc string
	if kind == models.TargetPost {
		var item models.FeedbackItem
		if err := db.DB.Preload("Board").First(&item, id).Error; err != nil {
			RespondError(c, apperr.NotFound("feedback item %d not found", id))
			return
		}
		workspaceID = item.Board.WorkspaceID
		desc = fmt.Sprintf("feedback %q", item.Title)
	} else {
		var comment models.Comment
		if err := db.DB.Preload("Item.Board").First(&comment, id).Error; err != nil {
			RespondError(c, apperr.NotFound("comment %d not found", id))
			return
		}
		workspaceID = comment.Item.Board.WorkspaceID
		desc = fmt.Sprintf("a comment on %q", comment.Item.Title)
	}

	report := models.Report{
		ItemType: kind,
		ItemID:   id,
		Reason:   c.PostForm("reason"),
	}
	ident.Apply(&report.UserID, &report.Fingerprint)
	if err := db.DB.Create(&report).Error; err != nil {
		RespondError(c, err)
		return
	}

	// Moderator fan-out happens off the request path.
	go func() {
		mods, err := h.policy.Moderators(workspaceID)
		if err != nil {
			return
		}
		for _, mod := range mods {
			h.notifier.NotifyAsync(mod.ID, report.UserID, models.NotificationTypeReport,
				fmt.Sprintf("reported %s: %s", desc, report.Reason))
		}
	}()

	c.JSON(http.StatusCreated, gin.H{"status": "reported"})
}
