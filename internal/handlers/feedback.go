package handlers

import (
	"net/http"
	"strconv"

	"echoboard/internal/db"
	"echoboard/internal/services"
	"echoboard/internal/utils"

	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	items    *services.ItemService
	comments *services.CommentService
}

func NewFeedbackHandler() *FeedbackHandler {
	return &FeedbackHandler{
		items:    services.NewItemService(db.DB),
		comments: services.NewCommentService(db.DB),
	}
}

type createItemRequest struct {
	BoardID uint   `json:"board_id" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Body    string `json:"body"`
	TagIDs  []uint `json:"tag_ids"`
}

func (h *FeedbackHandler) Create(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.items.Create(services.CreateItemParams{
		BoardID:  req.BoardID,
		Identity: CurrentIdentity(c),
		Title:    req.Title,
		Body:     req.Body,
		TagIDs:   req.TagIDs,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *FeedbackHandler) Detail(c *gin.Context) {
	item, err := h.items.GetByPid(c.Param("pid"))
	if err != nil {
		RespondError(c, err)
		return
	}

	comments, err := h.comments.ListForItem(item.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"item":      item,
		"body_html": utils.RenderMarkdown(item.Body),
		"comments":  comments,
	})
}

func (h *FeedbackHandler) ListByBoard(c *gin.Context) {
	boardID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid board id"})
		return
	}

	page := 1
	if p := c.Query("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	perPage := 30

	items, err := h.items.ListByBoard(uint(boardID), perPage, (page-1)*perPage)
	if err != nil {
		RespondError(c, err)
		return
	}
	respondOK(c, gin.H{"items": items, "page": page})
}

type updateItemRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

func (h *FeedbackHandler) Update(c *gin.Context) {
	item, err := h.items.GetByPid(c.Param("pid"))
	if err != nil {
		RespondError(c, err)
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.items.Update(item.ID, CurrentIdentity(c), req.Title, req.Body)
	if err != nil {
		RespondError(c, err)
		return
	}
	respondOK(c, updated)
}
