package handlers

import (
	"net/http"

	"echoboard/internal/db"
	"echoboard/internal/models"
	"echoboard/internal/services"

	"github.com/gin-gonic/gin"
)

type MergeHandler struct {
	merge *services.MergeService
	items *services.ItemService
}

func NewMergeHandler() *MergeHandler {
	return &MergeHandler{
		merge: services.NewMergeService(db.DB),
		items: services.NewItemService(db.DB),
	}
}

type mergeRequest struct {
	SourcePid string `json:"source_pid" binding:"required"`
	TargetPid string `json:"target_pid" binding:"required"`
	MergeType string `json:"merge_type"`
	Reason    string `json:"reason"`
}

func (h *MergeHandler) Merge(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source, err := h.items.GetByPid(req.SourcePid)
	if err != nil {
		RespondError(c, err)
		return
	}
	target, err := h.items.GetByPid(req.TargetPid)
	if err != nil {
		RespondError(c, err)
		return
	}

	user := CurrentUser(c)
	record, err := h.merge.Merge(source.ID, target.ID, user.ID, models.MergeType(req.MergeType), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

type mergeHereRequest struct {
	SourcePids []string `json:"source_pids" binding:"required"`
	Reason     string   `json:"reason"`
}

// MergeHere folds a batch of duplicates into the item in the URL. Sources
// that no longer qualify are skipped, not fatal.
func (h *MergeHandler) MergeHere(c *gin.Context) {
	target, err := h.items.GetByPid(c.Param("pid"))
	if err != nil {
		RespondError(c, err)
		return
	}

	var req mergeHereRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sourceIDs := make([]uint, 0, len(req.SourcePids))
	for _, pid := range req.SourcePids {
		var item models.FeedbackItem
		if err := db.DB.Select("id").Where("pid = ?", pid).First(&item).Error; err != nil {
			continue // unknown pids are skipped like any other disqualified source
		}
		sourceIDs = append(sourceIDs, item.ID)
	}

	user := CurrentUser(c)
	if err := h.merge.MergeHere(target.ID, sourceIDs, user.ID, req.Reason); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
