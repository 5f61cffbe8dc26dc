package handlers

import (
	"net/http"

	"boardly/internal/middleware"
	"boardly/internal/models"
	"boardly/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

type voteRequest struct {
	TargetID   uint              `json:"targetId"`
	TargetType models.TargetKind `json:"targetType"`
	Direction  models.Direction  `json:"direction"`
	Type       models.Direction  `json:"type"` // older clients send the direction as "type"
}

// Vote casts, switches or cancels the caller's vote on a post or comment.
func (h *VoteHandler) Vote(c *gin.Context) {
	var req voteRequest
	if !bindJSON(c, &req) {
		return
	}
	dir := req.Direction
	if dir == "" {
		dir = req.Type
	}

	res, err := h.votes.CastVote(c.Request.Context(), middleware.CurrentIdentity(c), req.TargetType, req.TargetID, dir)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
