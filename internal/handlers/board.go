package handlers

import (
	"net/http"

	"boardly/internal/middleware"
	"boardly/internal/services"
	"boardly/internal/utils"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	boards *services.BoardService
	posts  *services.PostService
}

func NewBoardHandler(boards *services.BoardService, posts *services.PostService) *BoardHandler {
	return &BoardHandler{boards: boards, posts: posts}
}

func (h *BoardHandler) List(c *gin.Context) {
	boards, err := h.boards.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards})
}

func (h *BoardHandler) Get(c *gin.Context) {
	board, err := h.boards.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"board": board})
}

// Show renders one board's paginated post list with optional title search.
func (h *BoardHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	board, err := h.boards.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	q := c.Query("q")
	page, err := h.posts.List(ctx, services.ListQuery{
		BoardSlug: board.Slug,
		Search:    q,
		Page:      utils.PageParam(c.Query("page")),
	}, middleware.CurrentIdentity(c))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	Render(c, http.StatusOK, "board.html", gin.H{
		"Board": board,
		"Page":  page,
		"Query": q,
		"Title": board.Name,
	})
}
