package handlers

import (
	"net/http"

	"boardly/internal/middleware"
	"boardly/internal/models"
	"boardly/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves /api/admin. The router already restricts it to admins;
// the services check again.
type AdminHandler struct {
	users  *services.UserService
	boards *services.BoardService
	posts  *services.PostService
}

func NewAdminHandler(users *services.UserService, boards *services.BoardService, posts *services.PostService) *AdminHandler {
	return &AdminHandler{users: users, boards: boards, posts: posts}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.users.Stats(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.AdminList(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

func (h *AdminHandler) SetRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in roleRequest
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.users.SetRole(c.Request.Context(), middleware.CurrentIdentity(c), id, in.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role updated", "user": user})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *AdminHandler) ListBoards(c *gin.Context) {
	boards, err := h.boards.AdminList(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards})
}

func (h *AdminHandler) CreateBoard(c *gin.Context) {
	var in services.BoardInput
	if !bindJSON(c, &in) {
		return
	}
	board, err := h.boards.Create(c.Request.Context(), middleware.CurrentIdentity(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "board created", "board": board})
}

func (h *AdminHandler) UpdateBoard(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.BoardInput
	if !bindJSON(c, &in) {
		return
	}
	board, err := h.boards.Update(c.Request.Context(), middleware.CurrentIdentity(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "board updated", "board": board})
}

func (h *AdminHandler) DeleteBoard(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.boards.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "board deleted"})
}

func (h *AdminHandler) ListPosts(c *gin.Context) {
	posts, err := h.posts.AdminList(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
