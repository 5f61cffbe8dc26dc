package handlers

import (
	"net/http"

	"boardly/internal/middleware"
	"boardly/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) Create(c *gin.Context) {
	var in services.CreateCommentInput
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), middleware.CurrentIdentity(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "comment created", "comment": comment})
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in updateCommentRequest
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.comments.Update(c.Request.Context(), middleware.CurrentIdentity(c), id, in.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment updated", "comment": comment})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
