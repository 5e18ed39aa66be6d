package handlers

import (
	"net/http"

	"echoboard/internal/apperr"
	"echoboard/internal/db"
	"echoboard/internal/models"
	"echoboard/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
	items    *services.ItemService
}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{
		comments: services.NewCommentService(db.DB),
		items:    services.NewItemService(db.DB),
	}
}

func findCommentByCid(cid string) (*models.Comment, error) {
	var comment models.Comment
	if err := db.DB.Where("cid = ?", cid).First(&comment).Error; err != nil {
		return nil, apperr.NotFound("comment %s not found", cid)
	}
	return &comment, nil
}

type createCommentRequest struct {
	ParentCid   string   `json:"parent_cid"`
	Content     string   `json:"content" binding:"required"`
	DisplayName string   `json:"display_name"`
	Attachments []string `json:"attachments"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	item, err := h.items.GetByPid(c.Param("pid"))
	if err != nil {
		RespondError(c, err)
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var parentID *uint
	if req.ParentCid != "" {
		parent, err := findCommentByCid(req.ParentCid)
		if err != nil {
			RespondError(c, err)
			return
		}
		parentID = &parent.ID
	}

	comment, err := h.comments.Create(services.CreateCommentParams{
		ItemID:      item.ID,
		ParentID:    parentID,
		Identity:    CurrentIdentity(c),
		DisplayName: req.DisplayName,
		Content:     req.Content,
		Attachments: req.Attachments,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

type editCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *CommentHandler) Edit(c *gin.Context) {
	comment, err := findCommentByCid(c.Param("cid"))
	if err != nil {
		RespondError(c, err)
		return
	}

	var req editCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	edited, err := h.comments.Edit(comment.ID, CurrentIdentity(c), req.Content)
	if err != nil {
		RespondError(c, err)
		return
	}
	respondOK(c, edited)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	comment, err := findCommentByCid(c.Param("cid"))
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.comments.Delete(comment.ID, CurrentIdentity(c)); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type pinCommentRequest struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

func (h *CommentHandler) Pin(c *gin.Context) {
	comment, err := findCommentByCid(c.Param("cid"))
	if err != nil {
		RespondError(c, err)
		return
	}

	var req pinCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.comments.Pin(comment.ID, *req.Pinned, CurrentIdentity(c)); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
